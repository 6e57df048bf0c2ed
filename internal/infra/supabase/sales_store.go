package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Sales store: table "sales"
// ============================================================

// saleRow maps the sales table columns. value is numeric(12,2).
type saleRow struct {
	ID         string          `json:"id"`
	Value      decimal.Decimal `json:"value"`
	ClientName string          `json:"client_name"`
	City       string          `json:"city"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (r saleRow) toDomain() domain.Sale {
	return domain.Sale(r)
}

func salePayload(s *domain.Sale) map[string]any {
	return map[string]any{
		"value":       s.Value.StringFixed(2),
		"client_name": s.ClientName,
		"city":        s.City,
		"date":        s.Date.UTC().Format(time.RFC3339Nano),
	}
}

// ListSales returns every sale, newest first.
func (c *Client) ListSales(ctx context.Context) ([]domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSales")
	defer span.End()

	var sales []domain.Sale
	err := c.guarded(ctx, "sales", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, "sales?select=*&order=created_at.desc")
		if err != nil {
			return err
		}
		var rows []saleRow
		if len(body) > 0 {
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode sales: %w", err)
			}
		}
		sales = make([]domain.Sale, 0, len(rows))
		for _, r := range rows {
			sales = append(sales, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("sales.count", len(sales)))
	return sales, nil
}

// GetSale fetches a single sale by ID.
func (c *Client) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	var sale *domain.Sale
	err := c.guarded(ctx, "sales", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, "sales?select=*&limit=1&"+eq("id", id))
		if err != nil {
			return err
		}
		row, ok, err := decodeFirst[saleRow](body)
		if err != nil {
			return fmt.Errorf("failed to decode sale: %w", err)
		}
		if !ok {
			return &domain.ErrNotFound{Resource: "sale", ID: id}
		}
		out := row.toDomain()
		sale = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// CreateSale inserts a sale, keeping a caller-assigned ID when present.
func (c *Client) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSale")
	defer span.End()

	data := salePayload(sale)
	if sale.ID != "" {
		data["id"] = sale.ID
	}
	if !sale.CreatedAt.IsZero() {
		data["created_at"] = sale.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	var created *domain.Sale
	err := c.guarded(ctx, "sales", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "sales", data)
		if err != nil {
			return err
		}
		row, ok, err := decodeFirst[saleRow](body)
		if err != nil {
			return fmt.Errorf("failed to decode created sale: %w", err)
		}
		if !ok {
			return fmt.Errorf("supabase returned no row for created sale")
		}
		out := row.toDomain()
		created = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateSale replaces the editable fields of a sale.
func (c *Client) UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", sale.ID))

	var updated *domain.Sale
	err := c.guarded(ctx, "sales", func(ctx context.Context) error {
		body, err := c.doPatch(ctx, "sales?"+eq("id", sale.ID), salePayload(sale))
		if err != nil {
			return err
		}
		row, ok, err := decodeFirst[saleRow](body)
		if err != nil {
			return fmt.Errorf("failed to decode updated sale: %w", err)
		}
		if !ok {
			return &domain.ErrNotFound{Resource: "sale", ID: sale.ID}
		}
		out := row.toDomain()
		updated = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSale removes a sale.
func (c *Client) DeleteSale(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSale")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	return c.guarded(ctx, "sales", func(ctx context.Context) error {
		body, err := c.doDelete(ctx, "sales?"+eq("id", id))
		if err != nil {
			return err
		}
		if _, ok, err := decodeFirst[saleRow](body); err != nil {
			return fmt.Errorf("failed to decode deleted sale: %w", err)
		} else if !ok {
			return &domain.ErrNotFound{Resource: "sale", ID: id}
		}
		return nil
	})
}
