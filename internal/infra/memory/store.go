// Package memory provides a process-local Store used by tests and by the
// "memory" backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/google/uuid"
)

// Store keeps clients and sales in maps guarded by a mutex. Values are
// copied on the way in and out so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	clients map[string]clientEntry
	sales   map[string]saleEntry
}

type clientEntry struct {
	seq    int64
	client domain.Client
}

type saleEntry struct {
	seq  int64
	sale domain.Sale
}

// New creates an empty store.
func New() *Store {
	return &Store{
		clients: make(map[string]clientEntry),
		sales:   make(map[string]saleEntry),
	}
}

// Name implements port.Store.
func (s *Store) Name() string { return "memory" }

// Ping implements port.Store.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func cloneClient(c domain.Client) domain.Client {
	out := c
	out.WeeklySales = make([]domain.WeeklySale, len(c.WeeklySales))
	copy(out.WeeklySales, c.WeeklySales)
	return out
}

// ListClients returns every client, newest first.
func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries := make([]clientEntry, 0, len(s.clients))
	for _, e := range s.clients {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.client.CreatedAt.Equal(b.client.CreatedAt) {
			return a.client.CreatedAt.After(b.client.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]domain.Client, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloneClient(e.client))
	}
	return out, nil
}

// GetClient fetches a single client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.clients[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: id}
	}
	c := cloneClient(e.client)
	return &c, nil
}

// CreateClient stores client, assigning ID and CreatedAt when missing.
func (s *Store) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := cloneClient(*client)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[c.ID]; exists {
		return nil, &domain.ErrValidation{Field: "id", Message: "already exists"}
	}
	s.seq++
	s.clients[c.ID] = clientEntry{seq: s.seq, client: c}

	out := cloneClient(c)
	return &out, nil
}

// UpdateClient replaces every field of the stored client except CreatedAt.
func (s *Store) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.clients[client.ID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: client.ID}
	}
	c := cloneClient(*client)
	c.CreatedAt = e.client.CreatedAt
	e.client = c
	s.clients[c.ID] = e

	out := cloneClient(c)
	return &out, nil
}

// DeleteClient removes a client.
func (s *Store) DeleteClient(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return &domain.ErrNotFound{Resource: "client", ID: id}
	}
	delete(s.clients, id)
	return nil
}

// ListSales returns every sale, newest first.
func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries := make([]saleEntry, 0, len(s.sales))
	for _, e := range s.sales {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.sale.CreatedAt.Equal(b.sale.CreatedAt) {
			return a.sale.CreatedAt.After(b.sale.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]domain.Sale, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.sale)
	}
	return out, nil
}

// GetSale fetches a single sale by ID.
func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sales[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "sale", ID: id}
	}
	sale := e.sale
	return &sale, nil
}

// CreateSale stores sale, assigning ID and CreatedAt when missing.
func (s *Store) CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := *sale
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sales[v.ID]; exists {
		return nil, &domain.ErrValidation{Field: "id", Message: "already exists"}
	}
	s.seq++
	s.sales[v.ID] = saleEntry{seq: s.seq, sale: v}
	return &v, nil
}

// UpdateSale replaces the editable fields of a sale.
func (s *Store) UpdateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sales[sale.ID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "sale", ID: sale.ID}
	}
	v := *sale
	v.CreatedAt = e.sale.CreatedAt
	e.sale = v
	s.sales[v.ID] = e
	return &v, nil
}

// DeleteSale removes a sale.
func (s *Store) DeleteSale(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return &domain.ErrNotFound{Resource: "sale", ID: id}
	}
	delete(s.sales, id)
	return nil
}
