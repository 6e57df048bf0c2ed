package handler_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/handler"
	"github.com/boddenberg/sales-tracker-go/internal/infra/cache"
	"github.com/boddenberg/sales-tracker-go/internal/infra/fallback"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/sales-tracker-go/internal/infra/sqlite"
	"github.com/boddenberg/sales-tracker-go/internal/infra/supabase"
	"github.com/boddenberg/sales-tracker-go/internal/service"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestIntegration_PrimaryDown runs the full stack with a Supabase primary
// that always fails and a SQLite file as the local store.
func TestIntegration_PrimaryDown(t *testing.T) {
	// --- Mock PostgREST that is down ---
	var hits atomic.Int32
	postgrest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer postgrest.Close()

	// --- Build stack ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	guard := resilience.NewGuard("supabase-test", resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 4})
	primary := supabase.NewClient(&http.Client{Timeout: 2 * time.Second}, postgrest.URL, "anon", "service", guard, logger)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	local := sqlite.NewStore(db)
	defer local.Close()

	store := fallback.New(primary, local, metrics, logger)

	now := time.Date(2024, time.March, 13, 10, 0, 0, 0, brt)
	tracker := weekly.New(weekly.WithClock(func() time.Time { return now }), weekly.WithLocation(brt))
	stats := cache.New[domain.DashboardStats](time.Minute)
	defer stats.Close()
	rate := decimal.RequireFromString("0.06")

	router := handler.NewRouter(handler.Services{
		Clients:   service.NewClientService(store, tracker, stats, metrics, logger),
		Sales:     service.NewSaleService(store, tracker, rate, stats, metrics, logger),
		Dashboard: service.NewDashboardService(store, store, tracker, rate, stats, metrics, logger),
		Store:     store,
		Fallback:  local.Name(),
	}, handler.RouterConfig{}, metrics, logger)

	// --- Writes land in the local store ---
	rec := do(t, router, http.MethodPost, "/v1/clients", `{"name":"Agro Silva","phone":"11999990000","city":"Campinas"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var client domain.ClientView
	decode(t, rec, &client)

	rec = do(t, router, http.MethodPost, "/v1/clients/"+client.ID+"/weekly-sale/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodPost, "/v1/sales", `{"value":"250","client_name":"Agro Silva","city":"Campinas","date":"2024-03-13"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// --- Reads are served from the local store ---
	rec = do(t, router, http.MethodGet, "/v1/dashboard/stats", "")
	var dashboard domain.DashboardStats
	decode(t, rec, &dashboard)
	if dashboard.TotalClients != 1 || dashboard.SoldThisWeek != 1 {
		t.Errorf("expected one sold client, got %+v", dashboard)
	}
	if !dashboard.TotalRevenue.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected revenue 250, got %s", dashboard.TotalRevenue)
	}

	// --- Health reports the primary as down ---
	rec = do(t, router, http.MethodGet, "/healthz", "")
	var health domain.HealthStatus
	decode(t, rec, &health)
	if health.Status == "healthy" {
		t.Errorf("expected degraded health with primary down, got %+v", health)
	}

	// --- Metrics record the fallbacks ---
	rec = do(t, router, http.MethodGet, "/v1/metrics/store", "")
	var sm domain.StoreMetrics
	decode(t, rec, &sm)
	if sm.Backend != "supabase" || sm.Fallback != "sqlite" {
		t.Errorf("unexpected backends %+v", sm)
	}
	if metrics.CounterValue("fallbacks", "create_sale") != 1 {
		t.Errorf("expected one create_sale fallback, got %v", metrics.CounterValue("fallbacks", "create_sale"))
	}
	if hits.Load() == 0 {
		t.Error("expected the primary to be tried")
	}
}
