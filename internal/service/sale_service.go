package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/export"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/port"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SaleService manages recorded sales.
type SaleService struct {
	store          port.SaleStore
	tracker        *weekly.Tracker
	commissionRate decimal.Decimal
	stats          port.Cache[domain.DashboardStats]
	metrics        *observability.Metrics
	logger         *zap.Logger
	newID          func() string
}

// NewSaleService creates a sale service. commissionRate is a fraction (0.06 = 6%).
func NewSaleService(store port.SaleStore, tracker *weekly.Tracker, commissionRate decimal.Decimal, stats port.Cache[domain.DashboardStats], metrics *observability.Metrics, logger *zap.Logger) *SaleService {
	return &SaleService{
		store:          store,
		tracker:        tracker,
		commissionRate: commissionRate,
		stats:          stats,
		metrics:        metrics,
		logger:         logger,
		newID:          uuid.NewString,
	}
}

// CommissionRate returns the configured commission fraction.
func (s *SaleService) CommissionRate() decimal.Decimal {
	return s.commissionRate
}

// Location is the time zone sale dates are bucketed in.
func (s *SaleService) Location() *time.Location {
	return s.tracker.Location()
}

// maxSaleValue is the first value NUMERIC(12,2) cannot hold.
var maxSaleValue = decimal.New(1, 10)

// normalizeSale trims the text fields and checks the value fits in cents, the
// way every backend stores it.
func normalizeSale(in domain.SaleInput) (domain.SaleInput, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.City = strings.TrimSpace(in.City)

	switch {
	case !in.Value.IsPositive():
		return in, &domain.ErrValidation{Field: "value", Message: "must be greater than zero"}
	case !in.Value.Round(2).Equal(in.Value):
		return in, &domain.ErrValidation{Field: "value", Message: "must have at most two decimal places"}
	case in.Value.GreaterThanOrEqual(maxSaleValue):
		return in, &domain.ErrValidation{Field: "value", Message: "is too large"}
	case in.ClientName == "":
		return in, &domain.ErrValidation{Field: "client_name", Message: "is required"}
	case in.City == "":
		return in, &domain.ErrValidation{Field: "city", Message: "is required"}
	}
	return in, nil
}

// Create validates and stores a sale. A zero date means today.
func (s *SaleService) Create(ctx context.Context, in domain.SaleInput) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "SaleService.Create")
	defer span.End()
	defer observe(s.metrics, "sale_create", time.Now())

	in, err := normalizeSale(in)
	if err != nil {
		return nil, err
	}
	now := s.tracker.Now()
	if in.Date.IsZero() {
		in.Date = now
	}

	created, err := s.store.CreateSale(ctx, &domain.Sale{
		ID:         s.newID(),
		Value:      in.Value,
		ClientName: in.ClientName,
		City:       in.City,
		Date:       in.Date,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	s.stats.Purge()

	span.SetAttributes(attribute.String("sale.id", created.ID))
	s.logger.Info("sale recorded",
		zap.String("sale_id", created.ID),
		zap.String("value", created.Value.StringFixed(2)),
		zap.String("client_name", created.ClientName),
	)
	return created, nil
}

// Get returns one sale.
func (s *SaleService) Get(ctx context.Context, id string) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "SaleService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	return s.store.GetSale(ctx, id)
}

// Update replaces the editable fields of a sale. A zero date keeps the
// stored one.
func (s *SaleService) Update(ctx context.Context, id string, in domain.SaleInput) (*domain.Sale, error) {
	ctx, span := tracer.Start(ctx, "SaleService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	in, err := normalizeSale(in)
	if err != nil {
		return nil, err
	}
	current, err := s.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Value = in.Value
	current.ClientName = in.ClientName
	current.City = in.City
	if !in.Date.IsZero() {
		current.Date = in.Date
	}

	updated, err := s.store.UpdateSale(ctx, current)
	if err != nil {
		return nil, err
	}
	s.stats.Purge()
	return updated, nil
}

// Delete removes a sale.
func (s *SaleService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SaleService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", id))

	if err := s.store.DeleteSale(ctx, id); err != nil {
		return err
	}
	s.stats.Purge()
	s.logger.Info("sale deleted", zap.String("sale_id", id))
	return nil
}

// List returns the sales matching q with a summary of that subset.
func (s *SaleService) List(ctx context.Context, q domain.SaleQuery) (*domain.SaleList, error) {
	ctx, span := tracer.Start(ctx, "SaleService.List")
	defer span.End()
	defer observe(s.metrics, "sale_list", time.Now())

	sales, err := s.store.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	filtered := SortSales(FilterSales(sales, q, s.tracker.Location()), q.SortBy, q.Order)
	span.SetAttributes(attribute.Int("sales.count", len(filtered)))

	return &domain.SaleList{
		Sales:   filtered,
		Summary: Summarize(filtered, s.commissionRate),
	}, nil
}

// Export writes the sales matching q to w as an XLSX workbook.
func (s *SaleService) Export(ctx context.Context, q domain.SaleQuery, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "SaleService.Export")
	defer span.End()

	list, err := s.List(ctx, q)
	if err != nil {
		return err
	}
	return export.WriteSalesXLSX(w, *list, s.tracker.Location())
}
