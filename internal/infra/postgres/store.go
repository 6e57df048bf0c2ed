package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/resilience"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("postgres")

// Store implements port.Store on PostgreSQL.
type Store struct {
	pool  *pgxpool.Pool
	guard *resilience.Guard
}

// NewStore wraps a connected pool. See Connect.
func NewStore(pool *pgxpool.Pool, guard *resilience.Guard) *Store {
	return &Store{pool: pool, guard: guard}
}

// Name implements port.Store.
func (s *Store) Name() string { return "postgres" }

// Ping implements port.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// run executes fn through the guard and maps driver failures to domain errors.
func (s *Store) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return classify(op, fn(ctx))
	})
	if err == nil || resilience.IsAnswer(err) || errors.Is(err, context.Canceled) {
		return err
	}
	var timeout *domain.ErrTimeout
	var open *domain.ErrCircuitOpen
	if errors.As(err, &timeout) || errors.As(err, &open) {
		return err
	}
	return &domain.ErrExternalService{Service: "postgres/" + op, Err: err}
}

// classify turns data and integrity violations (SQLSTATE classes 22 and 23)
// into validation errors.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return &domain.ErrValidation{Field: op, Message: pgErr.Message}
		}
	}
	return err
}

// ============================================================
// Clients
// ============================================================

const clientColumns = "id, name, phone, business_type, city, location, importance_level, created_at, weekly_sales::text"

func scanClient(row pgx.Row) (domain.Client, error) {
	var c domain.Client
	var businessType, importance, weekly string
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &businessType, &c.City, &c.Location, &importance, &c.CreatedAt, &weekly); err != nil {
		return domain.Client{}, err
	}
	c.BusinessType = domain.BusinessType(businessType)
	c.ImportanceLevel = domain.ImportanceLevel(importance)
	c.WeeklySales = []domain.WeeklySale{}
	if weekly != "" {
		if err := json.Unmarshal([]byte(weekly), &c.WeeklySales); err != nil {
			return domain.Client{}, fmt.Errorf("failed to decode weekly_sales: %w", err)
		}
	}
	if c.WeeklySales == nil {
		c.WeeklySales = []domain.WeeklySale{}
	}
	return c, nil
}

func weeklyJSON(sales []domain.WeeklySale) (string, error) {
	if sales == nil {
		sales = []domain.WeeklySale{}
	}
	b, err := json.Marshal(sales)
	if err != nil {
		return "", fmt.Errorf("failed to encode weekly_sales: %w", err)
	}
	return string(b), nil
}

// ListClients returns every client, newest first.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListClients")
	defer span.End()

	var clients []domain.Client
	err := s.run(ctx, "clients", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY created_at DESC")
		if err != nil {
			return err
		}
		defer rows.Close()

		clients = []domain.Client{}
		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			clients = append(clients, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("clients.count", len(clients)))
	return clients, nil
}

// GetClient fetches a single client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	var client domain.Client
	err := s.run(ctx, "clients", func(ctx context.Context) error {
		c, err := scanClient(s.pool.QueryRow(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = $1", id))
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		client = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// CreateClient inserts a client. The caller assigns ID.
func (s *Store) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateClient")
	defer span.End()

	if client.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	weekly, err := weeklyJSON(client.WeeklySales)
	if err != nil {
		return nil, err
	}
	createdAt := client.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var created domain.Client
	err = s.run(ctx, "clients", func(ctx context.Context) error {
		c, err := scanClient(s.pool.QueryRow(ctx,
			`INSERT INTO clients (id, name, phone, business_type, city, location, importance_level, created_at, weekly_sales)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
			 RETURNING `+clientColumns,
			client.ID, client.Name, client.Phone, string(client.BusinessType), client.City,
			client.Location, string(client.ImportanceLevel), createdAt, weekly,
		))
		created = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateClient replaces every field of the stored client except created_at.
func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", client.ID))

	weekly, err := weeklyJSON(client.WeeklySales)
	if err != nil {
		return nil, err
	}

	var updated domain.Client
	err = s.run(ctx, "clients", func(ctx context.Context) error {
		c, err := scanClient(s.pool.QueryRow(ctx,
			`UPDATE clients SET name = $2, phone = $3, business_type = $4, city = $5, location = $6,
			        importance_level = $7, weekly_sales = $8::jsonb
			 WHERE id = $1
			 RETURNING `+clientColumns,
			client.ID, client.Name, client.Phone, string(client.BusinessType), client.City,
			client.Location, string(client.ImportanceLevel), weekly,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "client", ID: client.ID}
		}
		updated = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteClient removes a client.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	return s.run(ctx, "clients", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		return nil
	})
}

// ============================================================
// Sales
// ============================================================

const saleColumns = "id, value::text, client_name, city, date, created_at"

func scanSale(row pgx.Row) (domain.Sale, error) {
	var sale domain.Sale
	var value string
	if err := row.Scan(&sale.ID, &value, &sale.ClientName, &sale.City, &sale.Date, &sale.CreatedAt); err != nil {
		return domain.Sale{}, err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("failed to parse value %q: %w", value, err)
	}
	sale.Value = v
	return sale, nil
}

// ListSales returns every sale, newest first.
func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListSales")
	defer span.End()

	var sales []domain.Sale
	err := s.run(ctx, "sales", func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, "SELECT "+saleColumns+" FROM sales ORDER BY created_at DESC")
		if err != nil {
			return err
		}
		defer rows.Close()

		sales = []domain.Sale{}
		for rows.Next() {
			sale, err := scanSale(rows)
			if err != nil {
				return err
			}
			sales = append(sales, sale)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("sales.count", len(sales)))
	return sales, nil
}

// GetSale fetches a single sale by ID.
func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	var sale domain.Sale
	err := s.run(ctx, "sales", func(ctx context.Context) error {
		v, err := scanSale(s.pool.QueryRow(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = $1", id))
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "sale", ID: id}
		}
		sale = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// CreateSale inserts a sale. The caller assigns ID.
func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateSale")
	defer span.End()

	if sale.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	createdAt := sale.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var created domain.Sale
	err := s.run(ctx, "sales", func(ctx context.Context) error {
		v, err := scanSale(s.pool.QueryRow(ctx,
			`INSERT INTO sales (id, value, client_name, city, date, created_at)
			 VALUES ($1, $2::numeric, $3, $4, $5, $6)
			 RETURNING `+saleColumns,
			sale.ID, sale.Value.String(), sale.ClientName, sale.City, sale.Date, createdAt,
		))
		created = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSale replaces the editable fields of a sale.
func (s *Store) UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", sale.ID))

	var updated domain.Sale
	err := s.run(ctx, "sales", func(ctx context.Context) error {
		v, err := scanSale(s.pool.QueryRow(ctx,
			`UPDATE sales SET value = $2::numeric, client_name = $3, city = $4, date = $5
			 WHERE id = $1
			 RETURNING `+saleColumns,
			sale.ID, sale.Value.String(), sale.ClientName, sale.City, sale.Date,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ErrNotFound{Resource: "sale", ID: sale.ID}
		}
		updated = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSale removes a sale.
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	return s.run(ctx, "sales", func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, "DELETE FROM sales WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return &domain.ErrNotFound{Resource: "sale", ID: id}
		}
		return nil
	})
}
