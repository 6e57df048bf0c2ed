package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
)

const saleColumns = "id, value, client_name, city, date, created_at"

func scanSale(r rowScanner) (domain.Sale, error) {
	var sale domain.Sale
	var value, date, createdAt string
	if err := r.Scan(&sale.ID, &value, &sale.ClientName, &sale.City, &date, &createdAt); err != nil {
		return domain.Sale{}, err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("parsing value %q: %w", value, err)
	}
	sale.Value = v
	if sale.Date, err = parseTime(date); err != nil {
		return domain.Sale{}, err
	}
	if sale.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

// ListSales returns every sale, newest first.
func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+saleColumns+" FROM sales ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sales := []domain.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sales: %w", err)
	}
	return sales, nil
}

// GetSale fetches a single sale by ID.
func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "sale", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale: %w", err)
	}
	return &sale, nil
}

// CreateSale inserts a sale. The caller assigns ID.
func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	created := *sale
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sales ("+saleColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		created.ID, created.Value.String(), created.ClientName, created.City,
		formatTime(created.Date), formatTime(created.CreatedAt.UTC()),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting sale: %w", err)
	}
	return s.GetSale(ctx, created.ID)
}

// UpdateSale replaces the editable fields of a sale.
func (s *Store) UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sales SET value = ?, client_name = ?, city = ?, date = ? WHERE id = ?",
		sale.Value.String(), sale.ClientName, sale.City, formatTime(sale.Date), sale.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, &domain.ErrNotFound{Resource: "sale", ID: sale.ID}
	}
	return s.GetSale(ctx, sale.ID)
}

// DeleteSale removes a sale.
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sales WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "sale", ID: id}
	}
	return nil
}
