package cli

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/handler"
	"github.com/boddenberg/sales-tracker-go/internal/infra/cache"
	"github.com/boddenberg/sales-tracker-go/internal/infra/memory"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/service"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"
)

// startServer serves the API over a memory store and points the CLI at it
// with an empty home directory.
func startServer(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRACKER_SERVER_URL", "")
	t.Setenv("TRACKER_TOKEN", "")
	t.Setenv("TIMEZONE", "America/Sao_Paulo")

	loc := config.Load().Location()
	now := time.Date(2024, time.March, 13, 10, 0, 0, 0, loc)
	tracker := weekly.New(weekly.WithClock(func() time.Time { return now }), weekly.WithLocation(loc))
	store := memory.New()
	stats := cache.New[domain.DashboardStats](time.Minute)
	t.Cleanup(stats.Close)
	metrics := observability.NewMetrics()
	rate := decimal.RequireFromString("0.06")
	logger := zap.NewNop()

	srv := httptest.NewServer(handler.NewRouter(handler.Services{
		Clients:   service.NewClientService(store, tracker, stats, metrics, logger),
		Sales:     service.NewSaleService(store, tracker, rate, stats, metrics, logger),
		Dashboard: service.NewDashboardService(store, store, tracker, rate, stats, metrics, logger),
		Store:     store,
	}, handler.RouterConfig{}, metrics, logger))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRemoteClientCommands(t *testing.T) {
	server := startServer(t)

	out, err := executeCommand("--server", server, "--format", "json",
		"clients", "add", "Agro Silva", "--phone", "(11) 99999-0000", "--city", "Campinas", "--importance", "high")
	require.NoError(t, err)
	var created domain.ClientView
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, domain.ImportanceHigh, created.ImportanceLevel)

	out, err = executeCommand("--server", server, "toggle", created.ID, "--date", "2024-03-13")
	require.NoError(t, err)
	assert.Equal(t, "Agro Silva: vendido na semana 11/03/2024 a 17/03/2024", strings.TrimSpace(out))

	out, err = executeCommand("--server", server, "clients", "list")
	require.NoError(t, err)
	assert.Contains(t, out, created.ID)
	assert.Contains(t, out, "Total: 1 clients, 1 sold this week")

	out, err = executeCommand("--server", server, "clients", "rm", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "removed")

	_, err = executeCommand("--server", server, "clients", "rm", created.ID)
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestRemoteSaleCommands(t *testing.T) {
	server := startServer(t)

	out, err := executeCommand("--server", server,
		"sales", "add", "150,50", "--client", "Pet Feliz", "--city", "Valinhos", "--date", "12/03/2024")
	require.NoError(t, err)
	assert.Contains(t, out, "R$ 150,50")

	out, err = executeCommand("--server", server, "--format", "json", "sales", "list", "--date", "2024-03-12")
	require.NoError(t, err)
	var list domain.SaleList
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Sales, 1)
	assert.True(t, list.Summary.Total.Equal(decimal.RequireFromString("150.5")))

	file := filepath.Join(t.TempDir(), "vendas.xlsx")
	_, err = executeCommand("--server", server, "sales", "export", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))

	out, err = executeCommand("--server", server, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Faturamento:")
	assert.Contains(t, out, "R$ 150,50")

	out, err = executeCommand("--server", server, "report", "--date", "2024-03-12")
	require.NoError(t, err)
	assert.Contains(t, out, "Semana 11/03/2024 a 17/03/2024")

	_, err = executeCommand("--server", server, "sales", "add", "abc", "--client", "X", "--city", "Y")
	assert.Error(t, err)
}
