package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubReporter struct {
	report *domain.WeeklyReport
	err    error
	calls  int
}

func (s *stubReporter) WeeklyReport(ctx context.Context, _ time.Time) (*domain.WeeklyReport, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a deadline")
	}
	return s.report, s.err
}

func TestRunWeeklyReport_LogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reporter := &stubReporter{report: &domain.WeeklyReport{
		WeekStart:   time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC),
		WeekEnd:     time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC),
		SoldClients: []string{"Agro Silva"},
		Sales:       domain.SalesSummary{Count: 2, Total: decimal.NewFromInt(300), Commission: decimal.NewFromInt(18)},
		Revenue:     decimal.NewFromInt(300),
	}}

	s := NewScheduler("", time.UTC, reporter, zap.New(core))
	s.RunWeeklyReport(context.Background())

	require.Equal(t, 1, reporter.calls)
	entries := logs.FilterMessage("weekly report").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "300.00", fields["revenue"])
	assert.Equal(t, int64(1), fields["sold_clients"])
	assert.Contains(t, fields["summary"], "Agro Silva")
}

func TestRunWeeklyReport_LogsError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewScheduler("", time.UTC, &stubReporter{err: errors.New("store down")}, zap.New(core))

	s.RunWeeklyReport(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("failed to generate weekly report").Len())
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewScheduler("every sunday", time.UTC, &stubReporter{}, zap.NewNop())
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(DefaultWeeklySpec, time.UTC, &stubReporter{}, zap.NewNop())
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
