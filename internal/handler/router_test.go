package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/handler"
	"github.com/boddenberg/sales-tracker-go/internal/infra/cache"
	"github.com/boddenberg/sales-tracker-go/internal/infra/export"
	"github.com/boddenberg/sales-tracker-go/internal/infra/memory"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/service"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var brt = time.FixedZone("BRT", -3*60*60)

func newServices(t *testing.T) handler.Services {
	t.Helper()
	now := time.Date(2024, time.March, 13, 10, 0, 0, 0, brt)
	tracker := weekly.New(weekly.WithClock(func() time.Time { return now }), weekly.WithLocation(brt))
	store := memory.New()
	stats := cache.New[domain.DashboardStats](time.Minute)
	t.Cleanup(stats.Close)
	metrics := observability.NewMetrics()
	rate := decimal.RequireFromString("0.06")
	logger := zap.NewNop()

	return handler.Services{
		Clients:   service.NewClientService(store, tracker, stats, metrics, logger),
		Sales:     service.NewSaleService(store, tracker, rate, stats, metrics, logger),
		Dashboard: service.NewDashboardService(store, store, tracker, rate, stats, metrics, logger),
		Store:     store,
	}
}

func newRouter(t *testing.T, svc handler.Services) http.Handler {
	t.Helper()
	return handler.NewRouter(svc, handler.RouterConfig{CORSOrigins: []string{"http://localhost:5173"}}, observability.NewMetrics(), zap.NewNop())
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	router := handler.NewRouter(handler.Services{}, handler.RouterConfig{}, observability.NewMetrics(), zap.NewNop())

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		rec := do(t, router, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestHealthzReportsStore(t *testing.T) {
	router := newRouter(t, newServices(t))

	rec := do(t, router, http.MethodGet, "/healthz", "")
	var health domain.HealthStatus
	decode(t, rec, &health)

	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %q", health.Status)
	}
	if len(health.Services) != 2 || health.Services[1].Name != "memory" {
		t.Errorf("expected memory store in services, got %+v", health.Services)
	}
}

func TestClientLifecycle(t *testing.T) {
	router := newRouter(t, newServices(t))

	rec := do(t, router, http.MethodPost, "/v1/clients",
		`{"name":"Agro Silva","phone":"(11) 99999-0000","city":"Campinas","location":"Rua A, 10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.ClientView
	decode(t, rec, &created)

	if created.WhatsAppURL != "https://wa.me/5511999990000" {
		t.Errorf("unexpected whatsapp url %q", created.WhatsAppURL)
	}
	if created.MapsURL != "https://www.google.com/maps/search/?api=1&query=Rua+A%2C+10" {
		t.Errorf("unexpected maps url %q", created.MapsURL)
	}
	if created.SoldThisWeek {
		t.Error("new client must not be sold this week")
	}

	rec = do(t, router, http.MethodPost, "/v1/clients/"+created.ID+"/weekly-sale/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var toggled domain.ToggleResult
	decode(t, rec, &toggled)
	if !toggled.Status.Sold || !toggled.Client.SoldThisWeek {
		t.Errorf("expected sold after toggle, got %+v", toggled.Status)
	}

	rec = do(t, router, http.MethodGet, "/v1/clients?search=campinas", "")
	var list []domain.ClientView
	decode(t, rec, &list)
	if len(list) != 1 || !list[0].SoldThisWeek {
		t.Errorf("expected one sold client, got %+v", list)
	}

	rec = do(t, router, http.MethodPatch, "/v1/clients/"+created.ID+"/importance", `{"importance_level":"high"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("importance: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodDelete, "/v1/clients/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/v1/clients/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted: expected 404, got %d", rec.Code)
	}
}

func TestCreateClient_BadInput(t *testing.T) {
	router := newRouter(t, newServices(t))

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"unknown field", `{"name":"A","phone":"1","city":"X","cnpj":"1"}`},
		{"missing name", `{"phone":"1","city":"X"}`},
		{"bad importance", `{"name":"A","phone":"1","city":"X","importance_level":"urgent"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/v1/clients", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestToggle_BadReference(t *testing.T) {
	router := newRouter(t, newServices(t))

	rec := do(t, router, http.MethodPost, "/v1/clients/any/weekly-sale/toggle?at=yesterday", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSalesEndpoints(t *testing.T) {
	router := newRouter(t, newServices(t))

	for _, body := range []string{
		`{"value":"150.50","client_name":"Agro Silva","city":"Campinas","date":"2024-03-13"}`,
		`{"value":49.5,"client_name":"Pet Feliz","city":"Valinhos","date":"2024-03-12"}`,
	} {
		rec := do(t, router, http.MethodPost, "/v1/sales", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, router, http.MethodPost, "/v1/sales", `{"value":0,"client_name":"X","city":"Y"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero value: expected 400, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/v1/sales?date=2024-03-13", "")
	var list domain.SaleList
	decode(t, rec, &list)
	if list.Summary.Count != 1 || !list.Summary.Total.Equal(decimal.RequireFromString("150.5")) {
		t.Errorf("unexpected summary %+v", list.Summary)
	}

	rec = do(t, router, http.MethodGet, "/v1/sales/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("export is not a zip container")
	}
}

func TestDashboardEndpoints(t *testing.T) {
	router := newRouter(t, newServices(t))
	do(t, router, http.MethodPost, "/v1/sales", `{"value":"100","client_name":"A","city":"X","date":"2024-03-11"}`)

	rec := do(t, router, http.MethodGet, "/v1/dashboard/stats", "")
	var stats domain.DashboardStats
	decode(t, rec, &stats)
	if stats.TotalSales != 1 || !stats.EstimatedCommission.Equal(decimal.NewFromInt(6)) {
		t.Errorf("unexpected stats %+v", stats)
	}

	rec = do(t, router, http.MethodGet, "/v1/reports/weekly?at=2024-03-04", "")
	var report domain.WeeklyReport
	decode(t, rec, &report)
	if report.Sales.Count != 0 {
		t.Errorf("expected no sales in the previous week, got %d", report.Sales.Count)
	}

	rec = do(t, router, http.MethodGet, "/v1/metrics/store", "")
	var sm domain.StoreMetrics
	decode(t, rec, &sm)
	if sm.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", sm.Backend)
	}
}

func TestBearerAuth(t *testing.T) {
	svc := newServices(t)
	svc.Tokens = service.NewTokenService("s3cret", time.Hour)
	router := newRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/v1/clients", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	token, _, err := svc.Tokens.Issue("test")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz must stay public, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(t, newServices(t))

	req := httptest.NewRequest(http.MethodOptions, "/v1/clients", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected allowed origin, got %q", got)
	}
}
