// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the storage backends.
package port

import (
	"context"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
)

// ClientStore persists clients together with their weekly sale records.
type ClientStore interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error)
	// UpdateClient replaces every field of the stored client, WeeklySales included.
	UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// SaleStore persists sales.
type SaleStore interface {
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
}

// Store is the repository capability the services depend on. Every backend
// (remote or local) implements it; fallback.Store composes two of them.
type Store interface {
	ClientStore
	SaleStore

	// Name identifies the backend in logs, metrics and health checks.
	Name() string
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
}
