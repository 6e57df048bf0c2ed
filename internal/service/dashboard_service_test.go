package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/cache"
	"github.com/boddenberg/sales-tracker-go/internal/infra/memory"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/service"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// seed creates three clients (one sold this week) and two sales, one of
// them in the previous week.
func seed(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	sold := f.addClient(t, "Bruno Rações", domain.ImportanceHigh)
	f.addClient(t, "Ágata Agro", domain.ImportanceMedium)
	f.addClient(t, "Casa do Campo", domain.ImportanceMedium)
	_, err := f.clients.ToggleWeeklySale(ctx, sold.ID, time.Time{})
	require.NoError(t, err)

	for _, in := range []domain.SaleInput{
		{Value: dec("200"), ClientName: sold.Name, City: "Campinas", Date: wednesday},
		{Value: dec("100"), ClientName: "Ágata Agro", City: "Campinas", Date: wednesday.AddDate(0, 0, -7)},
	} {
		_, err := f.sales.Create(ctx, in)
		require.NoError(t, err)
	}
}

func TestDashboardService_Stats(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	stats, err := f.dashboard.Stats(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalClients)
	assert.Equal(t, 2, stats.TotalSales)
	assert.Equal(t, 1, stats.SoldThisWeek)
	assert.True(t, stats.TotalRevenue.Equal(dec("300")))
	assert.True(t, stats.AverageSale.Equal(dec("150")))
	assert.True(t, stats.EstimatedCommission.Equal(dec("18")))
	assert.True(t, stats.WeekStart.Equal(time.Date(2024, time.March, 11, 0, 0, 0, 0, brt)))
	assert.Equal(t, 1, stats.ClientsByImportance[domain.ImportanceHigh])
	assert.Equal(t, 2, stats.ClientsByImportance[domain.ImportanceMedium])
	assert.Equal(t, 0, stats.ClientsByImportance[domain.ImportanceLow])
	assert.Equal(t, 3, stats.ClientsByBusiness[domain.BusinessFarmSupply])
	assert.Equal(t, 0, stats.ClientsByBusiness[domain.BusinessFarm])
}

func TestDashboardService_StatsCachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	_, err := f.dashboard.Stats(ctx, time.Time{})
	require.NoError(t, err)
	_, err = f.dashboard.Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.metrics.CounterValue("cache_hits", service.StatsCacheName))
	assert.Equal(t, 1.0, f.metrics.CounterValue("cache_misses", service.StatsCacheName))

	_, err = f.sales.Create(ctx, domain.SaleInput{Value: dec("50"), ClientName: "Casa do Campo", City: "Campinas"})
	require.NoError(t, err)

	stats, err := f.dashboard.Stats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSales)
	assert.Equal(t, 2.0, f.metrics.CounterValue("cache_misses", service.StatsCacheName))
}

func TestDashboardService_WeeklyReport(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	report, err := f.dashboard.WeeklyReport(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bruno Rações"}, report.SoldClients)
	assert.Equal(t, []string{"Ágata Agro", "Casa do Campo"}, report.UnsoldClients)
	assert.Equal(t, 1, report.Sales.Count)
	assert.True(t, report.Revenue.Equal(dec("200")))

	previous, err := f.dashboard.WeeklyReport(context.Background(), wednesday.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Empty(t, previous.SoldClients)
	assert.True(t, previous.Revenue.Equal(dec("100")))
}

type failingStore struct {
	*memory.Store
}

func (failingStore) ListClients(context.Context) ([]domain.Client, error) {
	return nil, &domain.ErrExternalService{Service: "test/clients", Err: errors.New("boom")}
}

func TestDashboardService_StatsPropagatesStoreError(t *testing.T) {
	f := newFixture(t)
	stats := cache.New[domain.DashboardStats](time.Minute)
	t.Cleanup(stats.Close)

	dashboard := service.NewDashboardService(
		failingStore{f.store}, f.store, weekly.New(weekly.WithLocation(brt)), dec("0.06"),
		stats, observability.NewMetrics(), zap.NewNop(),
	)
	_, err := dashboard.Stats(context.Background(), time.Time{})

	var ext *domain.ErrExternalService
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, "test/clients", ext.Service)
	assert.Zero(t, stats.Len())
}
