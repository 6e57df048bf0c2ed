package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
)

// timeLayout is fixed-width so text ordering of UTC values is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements port.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened database. See Open.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Name implements port.Store.
func (s *Store) Name() string { return "sqlite" }

// Ping implements port.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", v, err)
	}
	return t, nil
}

// ============================================================
// Clients
// ============================================================

const clientColumns = "id, name, phone, business_type, city, location, importance_level, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(r rowScanner) (domain.Client, error) {
	var c domain.Client
	var businessType, importance, createdAt string
	if err := r.Scan(&c.ID, &c.Name, &c.Phone, &businessType, &c.City, &c.Location, &importance, &createdAt); err != nil {
		return domain.Client{}, err
	}
	c.BusinessType = domain.BusinessType(businessType)
	c.ImportanceLevel = domain.ImportanceLevel(importance)
	t, err := parseTime(createdAt)
	if err != nil {
		return domain.Client{}, err
	}
	c.CreatedAt = t
	c.WeeklySales = []domain.WeeklySale{}
	return c, nil
}

// ListClients returns every client with its weekly sales, newest first.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	clients := []domain.Client{}
	index := map[string]int{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		index[c.ID] = len(clients)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("closing rows: %w", err)
	}

	sales, err := s.weeklySales(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for clientID, ws := range sales {
		if i, ok := index[clientID]; ok {
			clients[i].WeeklySales = ws
		}
	}
	return clients, nil
}

// GetClient fetches a single client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.getClient(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) getClient(ctx context.Context, q querier, id string) (*domain.Client, error) {
	c, err := scanClient(q.QueryRowContext(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "client", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting client: %w", err)
	}

	sales, err := s.weeklySales(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if ws, ok := sales[id]; ok {
		c.WeeklySales = ws
	}
	return &c, nil
}

// weeklySales loads weekly sale rows grouped by client, in stored order.
// An empty clientID loads every client's rows.
func (s *Store) weeklySales(ctx context.Context, q querier, clientID string) (map[string][]domain.WeeklySale, error) {
	query := "SELECT client_id, id, week_start, week_end, sold, notes, created_at FROM weekly_sales"
	var args []any
	if clientID != "" {
		query += " WHERE client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY client_id, position"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing weekly sales: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := map[string][]domain.WeeklySale{}
	for rows.Next() {
		var owner, start, end, createdAt string
		var ws domain.WeeklySale
		if err := rows.Scan(&owner, &ws.ID, &start, &end, &ws.Sold, &ws.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning weekly sale: %w", err)
		}
		if ws.WeekStart, err = parseTime(start); err != nil {
			return nil, err
		}
		if ws.WeekEnd, err = parseTime(end); err != nil {
			return nil, err
		}
		if ws.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weekly sales: %w", err)
	}
	return out, nil
}

// CreateClient inserts client with its weekly sales. The caller assigns ID
// and CreatedAt.
func (s *Store) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if client.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	created := *client
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO clients ("+clientColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			created.ID, created.Name, created.Phone, string(created.BusinessType), created.City,
			created.Location, string(created.ImportanceLevel), formatTime(created.CreatedAt.UTC()),
		)
		if err != nil {
			return fmt.Errorf("inserting client: %w", err)
		}
		return insertWeeklySales(ctx, tx, created.ID, created.WeeklySales)
	})
	if err != nil {
		return nil, err
	}
	return s.GetClient(ctx, created.ID)
}

// UpdateClient replaces every field of the stored client and its weekly sales.
func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE clients SET name = ?, phone = ?, business_type = ?, city = ?, location = ?, importance_level = ?
			 WHERE id = ?`,
			client.Name, client.Phone, string(client.BusinessType), client.City, client.Location,
			string(client.ImportanceLevel), client.ID,
		)
		if err != nil {
			return fmt.Errorf("updating client: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		} else if n == 0 {
			return &domain.ErrNotFound{Resource: "client", ID: client.ID}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM weekly_sales WHERE client_id = ?", client.ID); err != nil {
			return fmt.Errorf("clearing weekly sales: %w", err)
		}
		return insertWeeklySales(ctx, tx, client.ID, client.WeeklySales)
	})
	if err != nil {
		return nil, err
	}
	return s.GetClient(ctx, client.ID)
}

func insertWeeklySales(ctx context.Context, tx *sql.Tx, clientID string, sales []domain.WeeklySale) error {
	for i, ws := range sales {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO weekly_sales (id, client_id, position, week_start, week_end, sold, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ws.ID, clientID, i, formatTime(ws.WeekStart), formatTime(ws.WeekEnd), ws.Sold, ws.Notes, formatTime(ws.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting weekly sale %s: %w", ws.ID, err)
		}
	}
	return nil
}

// DeleteClient removes a client; its weekly sales cascade.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "client", ID: id}
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
