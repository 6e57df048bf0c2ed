// Package fallback composes a remote primary Store with a local one.
//
// Every call goes to the primary first. When the primary fails for an
// infrastructure reason the call is served by the local store instead.
// Successful primary writes are mirrored to the local store so it stays
// usable offline. Not-found and validation answers from the primary are
// returned as-is and never trigger a fallback.
package fallback

import (
	"context"
	"errors"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/sales-tracker-go/internal/port"

	"go.uber.org/zap"
)

// Recorder receives fallback and backend error counts.
type Recorder interface {
	IncrFallback(operation string)
	IncrStoreError(backend string)
}

// Operations lists the operation labels passed to Recorder.IncrFallback.
var Operations = []string{
	"list_clients", "get_client", "create_client", "update_client", "delete_client",
	"list_sales", "get_sale", "create_sale", "update_sale", "delete_sale",
}

// Store implements port.Store over a primary and a local backend.
type Store struct {
	primary port.Store
	local   port.Store
	metrics Recorder
	logger  *zap.Logger
}

// New creates a fallback store.
func New(primary, local port.Store, metrics Recorder, logger *zap.Logger) *Store {
	return &Store{primary: primary, local: local, metrics: metrics, logger: logger}
}

// Name reports the primary backend.
func (s *Store) Name() string { return s.primary.Name() }

// LocalName reports the backend used when the primary is down.
func (s *Store) LocalName() string { return s.local.Name() }

// Ping checks the primary only; the local store is assumed available.
func (s *Store) Ping(ctx context.Context) error { return s.primary.Ping(ctx) }

// shouldFallback reports whether err is an infrastructure failure.
func shouldFallback(ctx context.Context, err error) bool {
	if err == nil || resilience.IsAnswer(err) || ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func (s *Store) fellBack(op string, err error) {
	s.metrics.IncrStoreError(s.primary.Name())
	s.metrics.IncrFallback(op)
	s.logger.Warn("primary store failed, using local store",
		zap.String("operation", op),
		zap.String("primary", s.primary.Name()),
		zap.String("local", s.local.Name()),
		zap.Error(err),
	)
}

func (s *Store) mirrorFailed(op string, err error) {
	s.logger.Warn("failed to mirror write to local store",
		zap.String("operation", op),
		zap.String("local", s.local.Name()),
		zap.Error(err),
	)
}

// ============================================================
// Clients
// ============================================================

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	clients, err := s.primary.ListClients(ctx)
	if shouldFallback(ctx, err) {
		s.fellBack("list_clients", err)
		return s.local.ListClients(ctx)
	}
	return clients, err
}

func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	client, err := s.primary.GetClient(ctx, id)
	if shouldFallback(ctx, err) {
		s.fellBack("get_client", err)
		return s.local.GetClient(ctx, id)
	}
	return client, err
}

func (s *Store) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	created, err := s.primary.CreateClient(ctx, client)
	if shouldFallback(ctx, err) {
		s.fellBack("create_client", err)
		return s.local.CreateClient(ctx, client)
	}
	if err != nil {
		return nil, err
	}
	s.mirrorClient(ctx, "create_client", created)
	return created, nil
}

func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	updated, err := s.primary.UpdateClient(ctx, client)
	if shouldFallback(ctx, err) {
		s.fellBack("update_client", err)
		return s.local.UpdateClient(ctx, client)
	}
	if err != nil {
		return nil, err
	}
	s.mirrorClient(ctx, "update_client", updated)
	return updated, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	err := s.primary.DeleteClient(ctx, id)
	if shouldFallback(ctx, err) {
		s.fellBack("delete_client", err)
		return s.local.DeleteClient(ctx, id)
	}
	if err != nil {
		return err
	}
	var notFound *domain.ErrNotFound
	if lerr := s.local.DeleteClient(ctx, id); lerr != nil && !errors.As(lerr, &notFound) {
		s.mirrorFailed("delete_client", lerr)
	}
	return nil
}

// mirrorClient upserts c into the local store.
func (s *Store) mirrorClient(ctx context.Context, op string, c *domain.Client) {
	_, err := s.local.UpdateClient(ctx, c)
	var notFound *domain.ErrNotFound
	if errors.As(err, &notFound) {
		_, err = s.local.CreateClient(ctx, c)
	}
	if err != nil {
		s.mirrorFailed(op, err)
	}
}

// ============================================================
// Sales
// ============================================================

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	sales, err := s.primary.ListSales(ctx)
	if shouldFallback(ctx, err) {
		s.fellBack("list_sales", err)
		return s.local.ListSales(ctx)
	}
	return sales, err
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.primary.GetSale(ctx, id)
	if shouldFallback(ctx, err) {
		s.fellBack("get_sale", err)
		return s.local.GetSale(ctx, id)
	}
	return sale, err
}

func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	created, err := s.primary.CreateSale(ctx, sale)
	if shouldFallback(ctx, err) {
		s.fellBack("create_sale", err)
		return s.local.CreateSale(ctx, sale)
	}
	if err != nil {
		return nil, err
	}
	s.mirrorSale(ctx, "create_sale", created)
	return created, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	updated, err := s.primary.UpdateSale(ctx, sale)
	if shouldFallback(ctx, err) {
		s.fellBack("update_sale", err)
		return s.local.UpdateSale(ctx, sale)
	}
	if err != nil {
		return nil, err
	}
	s.mirrorSale(ctx, "update_sale", updated)
	return updated, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	err := s.primary.DeleteSale(ctx, id)
	if shouldFallback(ctx, err) {
		s.fellBack("delete_sale", err)
		return s.local.DeleteSale(ctx, id)
	}
	if err != nil {
		return err
	}
	var notFound *domain.ErrNotFound
	if lerr := s.local.DeleteSale(ctx, id); lerr != nil && !errors.As(lerr, &notFound) {
		s.mirrorFailed("delete_sale", lerr)
	}
	return nil
}

func (s *Store) mirrorSale(ctx context.Context, op string, sale *domain.Sale) {
	_, err := s.local.UpdateSale(ctx, sale)
	var notFound *domain.ErrNotFound
	if errors.As(err, &notFound) {
		_, err = s.local.CreateSale(ctx, sale)
	}
	if err != nil {
		s.mirrorFailed(op, err)
	}
}
