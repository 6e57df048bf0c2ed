// Package service provides the business logic layer (use cases): client
// and sale management, the weekly sale flag and dashboard aggregates.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/port"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// ClientService manages clients and their weekly sale flags.
type ClientService struct {
	store   port.ClientStore
	tracker *weekly.Tracker
	stats   port.Cache[domain.DashboardStats]
	metrics *observability.Metrics
	logger  *zap.Logger
	newID   func() string
}

// NewClientService creates a client service. stats is purged on every mutation.
func NewClientService(store port.ClientStore, tracker *weekly.Tracker, stats port.Cache[domain.DashboardStats], metrics *observability.Metrics, logger *zap.Logger) *ClientService {
	return &ClientService{
		store:   store,
		tracker: tracker,
		stats:   stats,
		metrics: metrics,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// normalizeClient trims the input and applies defaults for empty enums.
func normalizeClient(in domain.ClientInput, defaults domain.ClientInput) (domain.ClientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.City = strings.TrimSpace(in.City)
	in.Location = strings.TrimSpace(in.Location)

	switch {
	case in.Name == "":
		return in, &domain.ErrValidation{Field: "name", Message: "is required"}
	case in.Phone == "":
		return in, &domain.ErrValidation{Field: "phone", Message: "is required"}
	case in.City == "":
		return in, &domain.ErrValidation{Field: "city", Message: "is required"}
	}

	if in.BusinessType == "" {
		in.BusinessType = defaults.BusinessType
	}
	if !in.BusinessType.Valid() {
		return in, &domain.ErrValidation{Field: "business_type", Message: "must be one of agropecuaria, petshop, mercado, fazenda"}
	}
	if in.ImportanceLevel == "" {
		in.ImportanceLevel = defaults.ImportanceLevel
	}
	if !in.ImportanceLevel.Valid() {
		return in, &domain.ErrValidation{Field: "importance_level", Message: "must be one of high, medium, low"}
	}
	return in, nil
}

// observe records how long op took since start.
func observe(m *observability.Metrics, op string, start time.Time) {
	m.RecordDuration(op, time.Since(start))
}

// Create validates and stores a new client with no weekly sales.
// Business type defaults to agropecuaria and importance to medium.
func (s *ClientService) Create(ctx context.Context, in domain.ClientInput) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Create")
	defer span.End()
	defer observe(s.metrics, "client_create", time.Now())

	in, err := normalizeClient(in, domain.ClientInput{
		BusinessType:    domain.BusinessFarmSupply,
		ImportanceLevel: domain.ImportanceMedium,
	})
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		ID:              s.newID(),
		Name:            in.Name,
		Phone:           in.Phone,
		BusinessType:    in.BusinessType,
		City:            in.City,
		Location:        in.Location,
		ImportanceLevel: in.ImportanceLevel,
		CreatedAt:       s.tracker.Now(),
		WeeklySales:     []domain.WeeklySale{},
	}
	created, err := s.store.CreateClient(ctx, client)
	if err != nil {
		return nil, err
	}
	s.stats.Purge()

	span.SetAttributes(attribute.String("client.id", created.ID))
	s.logger.Info("client created", zap.String("client_id", created.ID), zap.String("business_type", string(created.BusinessType)))
	return created, nil
}

// Get returns one client.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	return s.store.GetClient(ctx, id)
}

// List returns the clients matching q, sorted as requested.
func (s *ClientService) List(ctx context.Context, q domain.ClientQuery) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.List")
	defer span.End()
	defer observe(s.metrics, "client_list", time.Now())

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	out := SortClients(FilterClients(clients, q), q.SortBy)
	span.SetAttributes(attribute.Int("clients.count", len(out)))
	return out, nil
}

// Update replaces the editable fields of a client. Empty enums keep their
// stored value. ID, CreatedAt and weekly sales are preserved, and sales
// recorded under the old name are not renamed.
func (s *ClientService) Update(ctx context.Context, id string, in domain.ClientInput) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))
	defer observe(s.metrics, "client_update", time.Now())

	current, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = normalizeClient(in, domain.ClientInput{
		BusinessType:    current.BusinessType,
		ImportanceLevel: current.ImportanceLevel,
	})
	if err != nil {
		return nil, err
	}

	current.Name = in.Name
	current.Phone = in.Phone
	current.BusinessType = in.BusinessType
	current.City = in.City
	current.Location = in.Location
	current.ImportanceLevel = in.ImportanceLevel

	updated, err := s.store.UpdateClient(ctx, current)
	if err != nil {
		return nil, err
	}
	s.stats.Purge()
	return updated, nil
}

// UpdateImportance changes only the importance level.
func (s *ClientService) UpdateImportance(ctx context.Context, id string, level domain.ImportanceLevel) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.UpdateImportance")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id), attribute.String("importance", string(level)))

	if !level.Valid() {
		return nil, &domain.ErrValidation{Field: "importance_level", Message: "must be one of high, medium, low"}
	}
	current, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	current.ImportanceLevel = level

	updated, err := s.store.UpdateClient(ctx, current)
	if err != nil {
		return nil, err
	}
	s.stats.Purge()
	return updated, nil
}

// Delete removes a client. Sales that name it are kept.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "ClientService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	if err := s.store.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.stats.Purge()
	s.logger.Info("client deleted", zap.String("client_id", id))
	return nil
}

// ToggleWeeklySale flips the client's sold flag for the week containing ref
// (zero means now) and persists the result.
func (s *ClientService) ToggleWeeklySale(ctx context.Context, id string, ref time.Time) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "ClientService.ToggleWeeklySale")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))
	defer observe(s.metrics, "weekly_toggle", time.Now())

	current, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	toggled := s.tracker.Toggle(*current, ref)
	updated, err := s.store.UpdateClient(ctx, &toggled)
	if err != nil {
		return nil, err
	}
	s.stats.Purge()

	status := s.tracker.Status(*updated, ref)
	s.metrics.IncrToggle(status.Sold)
	span.SetAttributes(attribute.Bool("weekly.sold", status.Sold))
	s.logger.Info("weekly sale toggled",
		zap.String("client_id", id),
		zap.Time("week_start", status.WeekStart),
		zap.Bool("sold", status.Sold),
	)
	return updated, nil
}

// WeekStatus reports whether the client is marked sold for the week
// containing ref.
func (s *ClientService) WeekStatus(ctx context.Context, id string, ref time.Time) (*domain.WeekStatus, error) {
	ctx, span := tracer.Start(ctx, "ClientService.WeekStatus")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	status := s.tracker.Status(*client, ref)
	return &status, nil
}

// Tracker exposes the weekly tracker so views can compute per-client status.
func (s *ClientService) Tracker() *weekly.Tracker {
	return s.tracker
}
