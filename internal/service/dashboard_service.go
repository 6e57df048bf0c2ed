package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/port"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StatsCacheName labels the dashboard cache in metrics.
const StatsCacheName = "dashboard_stats"

// DashboardService computes aggregates across clients and sales.
type DashboardService struct {
	clients        port.ClientStore
	sales          port.SaleStore
	tracker        *weekly.Tracker
	commissionRate decimal.Decimal
	cache          port.Cache[domain.DashboardStats]
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewDashboardService creates the dashboard service. cache must be the same
// instance given to the client and sale services so their writes invalidate it.
func NewDashboardService(
	clients port.ClientStore,
	sales port.SaleStore,
	tracker *weekly.Tracker,
	commissionRate decimal.Decimal,
	cache port.Cache[domain.DashboardStats],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		clients:        clients,
		sales:          sales,
		tracker:        tracker,
		commissionRate: commissionRate,
		cache:          cache,
		metrics:        metrics,
		logger:         logger,
	}
}

// Location is the time zone weeks are bucketed in.
func (s *DashboardService) Location() *time.Location {
	return s.tracker.Location()
}

// load fetches clients and sales concurrently.
func (s *DashboardService) load(ctx context.Context) ([]domain.Client, []domain.Sale, error) {
	var clients []domain.Client
	var sales []domain.Sale

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clients.ListClients(gctx)
		if err != nil {
			return fmt.Errorf("clients fetch: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sales, err = s.sales.ListSales(gctx)
		if err != nil {
			return fmt.Errorf("sales fetch: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clients, sales, nil
}

// Stats returns the dashboard aggregates for the week containing ref.
// Results are cached until the next write.
func (s *DashboardService) Stats(ctx context.Context, ref time.Time) (*domain.DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Stats")
	defer span.End()
	defer observe(s.metrics, "dashboard_stats", time.Now())

	weekStart, weekEnd := s.tracker.Bounds(ref)
	cacheKey := "stats:" + weekStart.Format("2006-01-02")
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit(StatsCacheName)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}
	s.metrics.IncrCacheMiss(StatsCacheName)

	clients, sales, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	summary := Summarize(sales, s.commissionRate)
	stats := domain.DashboardStats{
		TotalClients:        len(clients),
		TotalSales:          summary.Count,
		TotalRevenue:        summary.Total,
		EstimatedCommission: summary.Commission,
		CommissionRate:      s.commissionRate,
		AverageSale:         summary.Average,
		WeekStart:           weekStart,
		WeekEnd:             weekEnd,
		ClientsByImportance: map[domain.ImportanceLevel]int{},
		ClientsByBusiness:   map[domain.BusinessType]int{},
		GeneratedAt:         s.tracker.Now(),
	}
	for _, level := range domain.ImportanceLevels {
		stats.ClientsByImportance[level] = 0
	}
	for _, bt := range domain.BusinessTypes {
		stats.ClientsByBusiness[bt] = 0
	}
	for _, c := range clients {
		stats.ClientsByImportance[c.ImportanceLevel]++
		stats.ClientsByBusiness[c.BusinessType]++
		if s.tracker.SoldThisWeek(c, weekStart) {
			stats.SoldThisWeek++
		}
	}

	s.cache.Set(cacheKey, stats)
	return &stats, nil
}

// WeeklyReport summarizes the week containing ref: which clients are marked
// sold, which are not, and the sales dated inside the week.
func (s *DashboardService) WeeklyReport(ctx context.Context, ref time.Time) (*domain.WeeklyReport, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.WeeklyReport")
	defer span.End()
	defer observe(s.metrics, "weekly_report", time.Now())

	weekStart, weekEnd := s.tracker.Bounds(ref)
	clients, sales, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.WeeklyReport{
		WeekStart:     weekStart,
		WeekEnd:       weekEnd,
		SoldClients:   []string{},
		UnsoldClients: []string{},
	}
	for _, c := range SortClients(clients, domain.SortClientsByName) {
		if s.tracker.SoldThisWeek(c, weekStart) {
			report.SoldClients = append(report.SoldClients, c.Name)
		} else {
			report.UnsoldClients = append(report.UnsoldClients, c.Name)
		}
	}

	// weekEnd is Sunday 00:00, so the week runs until the following Monday.
	nextWeek := weekStart.AddDate(0, 0, 7)
	inWeek := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		d := sale.Date.In(s.tracker.Location())
		if !d.Before(weekStart) && d.Before(nextWeek) {
			inWeek = append(inWeek, sale)
		}
	}
	sort.SliceStable(inWeek, func(i, j int) bool { return inWeek[i].Date.Before(inWeek[j].Date) })

	report.Sales = Summarize(inWeek, s.commissionRate)
	report.Revenue = report.Sales.Total

	s.logger.Debug("weekly report built",
		zap.Time("week_start", weekStart),
		zap.Int("sales", report.Sales.Count),
	)
	span.SetAttributes(
		attribute.Int("report.sold", len(report.SoldClients)),
		attribute.Int("report.unsold", len(report.UnsoldClients)),
	)
	return report, nil
}
