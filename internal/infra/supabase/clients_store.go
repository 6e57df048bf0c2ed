package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Clients store: table "clients", weekly_sales kept as jsonb
// ============================================================

// clientRow maps the clients table columns.
type clientRow struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Phone           string              `json:"phone"`
	BusinessType    string              `json:"business_type"`
	City            string              `json:"city"`
	Location        string              `json:"location"`
	ImportanceLevel string              `json:"importance_level"`
	CreatedAt       time.Time           `json:"created_at"`
	WeeklySales     []domain.WeeklySale `json:"weekly_sales"`
}

func (r clientRow) toDomain() domain.Client {
	sales := r.WeeklySales
	if sales == nil {
		sales = []domain.WeeklySale{}
	}
	return domain.Client{
		ID:              r.ID,
		Name:            r.Name,
		Phone:           r.Phone,
		BusinessType:    domain.BusinessType(r.BusinessType),
		City:            r.City,
		Location:        r.Location,
		ImportanceLevel: domain.ImportanceLevel(r.ImportanceLevel),
		CreatedAt:       r.CreatedAt,
		WeeklySales:     sales,
	}
}

func clientPayload(c *domain.Client) map[string]any {
	sales := c.WeeklySales
	if sales == nil {
		sales = []domain.WeeklySale{}
	}
	return map[string]any{
		"name":             c.Name,
		"phone":            c.Phone,
		"business_type":    string(c.BusinessType),
		"city":             c.City,
		"location":         c.Location,
		"importance_level": string(c.ImportanceLevel),
		"weekly_sales":     sales,
	}
}

// ListClients returns every client, newest first.
func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClients")
	defer span.End()

	var clients []domain.Client
	err := c.guarded(ctx, "clients", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, "clients?select=*&order=created_at.desc")
		if err != nil {
			return err
		}
		var rows []clientRow
		if len(body) > 0 {
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode clients: %w", err)
			}
		}
		clients = make([]domain.Client, 0, len(rows))
		for _, r := range rows {
			clients = append(clients, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("clients.count", len(clients)))
	return clients, nil
}

// GetClient fetches a single client by ID.
func (c *Client) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	var client *domain.Client
	err := c.guarded(ctx, "clients", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, "clients?select=*&limit=1&"+eq("id", id))
		if err != nil {
			return err
		}
		row, ok, err := decodeFirst[clientRow](body)
		if err != nil {
			return fmt.Errorf("failed to decode client: %w", err)
		}
		if !ok {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		out := row.toDomain()
		client = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CreateClient inserts client. ID and CreatedAt are taken from the argument
// when set so a mirrored local copy shares the same identity.
func (c *Client) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateClient")
	defer span.End()

	data := clientPayload(client)
	if client.ID != "" {
		data["id"] = client.ID
	}
	if !client.CreatedAt.IsZero() {
		data["created_at"] = client.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	var created *domain.Client
	err := c.guarded(ctx, "clients", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "clients", data)
		if err != nil {
			return err
		}
		row, ok, err := decodeFirst[clientRow](body)
		if err != nil {
			return fmt.Errorf("failed to decode created client: %w", err)
		}
		if !ok {
			return fmt.Errorf("supabase returned no row for created client")
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

// UpdateClient replaces the editable fields and the weekly sales of a client.
func (c *Client) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", client.ID))

	var updated *domain.Client
	err := c.guarded(ctx, "clients", func(ctx context.Context) error {
		body, err := c.doPatch(ctx, "clients?"+eq("id", client.ID), clientPayload(client))
		if err != nil {
			return err
		}
		row, ok, err := decodeFirst[clientRow](body)
		if err != nil {
			return fmt.Errorf("failed to decode updated client: %w", err)
		}
		if !ok {
			return &domain.ErrNotFound{Resource: "client", ID: client.ID}
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

// DeleteClient removes a client. Sales that reference it by name are kept.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	return c.guarded(ctx, "clients", func(ctx context.Context) error {
		body, err := c.doDelete(ctx, "clients?"+eq("id", id))
		if err != nil {
			return err
		}
		if _, ok, err := decodeFirst[clientRow](body); err != nil {
			return fmt.Errorf("failed to decode deleted client: %w", err)
		} else if !ok {
			return &domain.ErrNotFound{Resource: "client", ID: id}
		}
		return nil
	})
}
