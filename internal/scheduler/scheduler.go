// Package scheduler runs periodic jobs, currently the weekly sales report.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/format"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultWeeklySpec runs the report on Sundays at 20:00.
const DefaultWeeklySpec = "0 20 * * 0"

const reportTimeout = 2 * time.Minute

// Reporter builds the weekly report for the week containing ref.
type Reporter interface {
	WeeklyReport(ctx context.Context, ref time.Time) (*domain.WeeklyReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	reporter Reporter
	logger   *zap.Logger
}

// NewScheduler creates a scheduler that evaluates spec in loc. An empty spec
// uses DefaultWeeklySpec.
func NewScheduler(spec string, loc *time.Location, reporter Reporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultWeeklySpec
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		reporter: reporter,
		logger:   logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunWeeklyReport(context.Background()) }); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("weekly_report", s.spec))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunWeeklyReport builds the current week's report and logs it.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	report, err := s.reporter.WeeklyReport(ctx, time.Time{})
	if err != nil {
		s.logger.Error("failed to generate weekly report", zap.Error(err))
		return
	}
	s.logger.Info("weekly report",
		zap.Time("week_start", report.WeekStart),
		zap.Int("sold_clients", len(report.SoldClients)),
		zap.Int("unsold_clients", len(report.UnsoldClients)),
		zap.Int("sales", report.Sales.Count),
		zap.String("revenue", report.Revenue.StringFixed(2)),
		zap.String("summary", format.WeeklyReport(report)),
	)
}
