package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/infra/fallback"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/port"
	"github.com/boddenberg/sales-tracker-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles what the router serves. Any service may be nil in tests
// that only exercise operational endpoints.
type Services struct {
	Clients   *service.ClientService
	Sales     *service.SaleService
	Dashboard *service.DashboardService
	// Tokens enables bearer auth on /v1 when non-nil.
	Tokens *service.TokenService
	// Store is pinged by /healthz.
	Store port.Store
	// Fallback names the local store when one wraps Store.
	Fallback string
}

// RouterConfig holds HTTP-level settings.
type RouterConfig struct {
	CORSOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, cfg RouterConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if svc.Tokens != nil {
			r.Use(JWTAuthMiddleware(svc.Tokens, logger))
		}

		if svc.Clients != nil {
			r.Route("/clients", func(r chi.Router) {
				r.Get("/", listClientsHandler(svc.Clients, logger))
				r.Post("/", createClientHandler(svc.Clients, logger))
				r.Get("/{clientId}", getClientHandler(svc.Clients, logger))
				r.Put("/{clientId}", updateClientHandler(svc.Clients, logger))
				r.Delete("/{clientId}", deleteClientHandler(svc.Clients, logger))
				r.Patch("/{clientId}/importance", updateImportanceHandler(svc.Clients, logger))
				r.Post("/{clientId}/weekly-sale/toggle", toggleWeeklySaleHandler(svc.Clients, logger))
				r.Get("/{clientId}/weekly-sale", weeklySaleStatusHandler(svc.Clients, logger))
			})
		}

		if svc.Sales != nil {
			r.Route("/sales", func(r chi.Router) {
				r.Get("/", listSalesHandler(svc.Sales, logger))
				r.Post("/", createSaleHandler(svc.Sales, logger))
				r.Get("/export", exportSalesHandler(svc.Sales, logger))
				r.Get("/{saleId}", getSaleHandler(svc.Sales, logger))
				r.Put("/{saleId}", updateSaleHandler(svc.Sales, logger))
				r.Delete("/{saleId}", deleteSaleHandler(svc.Sales, logger))
			})
		}

		if svc.Dashboard != nil {
			r.Get("/dashboard/stats", dashboardStatsHandler(svc.Dashboard, logger))
			r.Get("/reports/weekly", weeklyReportHandler(svc.Dashboard, logger))
		}

		r.Get("/metrics/store", storeMetricsHandler(svc, metrics))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store port.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "tracker-api", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(r.Context())
			sh := domain.ServiceHealth{
				Name:        store.Name(),
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("store ping failed", zap.String("store", store.Name()), zap.Error(err))
				sh.Status = "degraded"
				sh.Error = err.Error()
			}
			services = append(services, sh)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func storeMetricsHandler(svc Services, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := domain.StoreMetrics{
			Fallback:      svc.Fallback,
			StoreErrors:   map[string]float64{},
			Fallbacks:     map[string]float64{},
			CacheHitRate:  metrics.CacheHitRate(service.StatsCacheName),
			ToggledSold:   metrics.CounterValue("weekly_toggles", "sold"),
			ToggledUnsold: metrics.CounterValue("weekly_toggles", "unsold"),
		}
		if svc.Store != nil {
			resp.Backend = svc.Store.Name()
			resp.StoreErrors[resp.Backend] = metrics.CounterValue("store_errors", resp.Backend)
		}
		for _, op := range fallback.Operations {
			if v := metrics.CounterValue("fallbacks", op); v > 0 {
				resp.Fallbacks[op] = v
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
