package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/handler"
	"github.com/boddenberg/sales-tracker-go/internal/infra/cache"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/scheduler"
	"github.com/boddenberg/sales-tracker-go/internal/service"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"
)

func newServeCmd() *cobra.Command {
	var port int
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadServerConfig()
			if port > 0 {
				cfg.Port = port
			}
			return runServer(cmd.Context(), cfg, !noScheduler)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: PORT or 8080)")
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "disable the weekly report job")
	return cmd
}

// loadServerConfig loads .env (for local development) and the environment.
func loadServerConfig() *config.Config {
	_ = config.LoadDotEnv(".env")
	return config.Load()
}

func runServer(ctx context.Context, cfg *config.Config, withScheduler bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("timezone", cfg.Timezone),
		zap.Float64("commission_rate", cfg.CommissionRate),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("store_fallback", cfg.StoreFallback),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Bool("auth", cfg.AuthSecret != ""),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	opened, err := openStore(ctx, cfg, metrics, observability.Named(logger, "store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer opened.Close(logger)

	// --- Cache ---
	statsCache := cache.New[domain.DashboardStats](cfg.CacheTTL)
	defer statsCache.Close()

	// --- Services ---
	loc := cfg.Location()
	tracker := weekly.New(weekly.WithLocation(loc))
	rate := decimal.NewFromFloat(cfg.CommissionRate)

	svc := handler.Services{
		Clients:   service.NewClientService(opened.store, tracker, statsCache, metrics, logger),
		Sales:     service.NewSaleService(opened.store, tracker, rate, statsCache, metrics, logger),
		Dashboard: service.NewDashboardService(opened.store, opened.store, tracker, rate, statsCache, metrics, logger),
		Store:     opened.store,
		Fallback:  opened.local,
	}
	if cfg.AuthSecret != "" {
		svc.Tokens = service.NewTokenService(cfg.AuthSecret, 0)
		logger.Info("bearer auth enabled on /v1")
	} else {
		logger.Warn("AUTH_SECRET not set, /v1 routes are public")
	}

	// --- Scheduler ---
	if withScheduler {
		sched := scheduler.NewScheduler(cfg.WeeklyReportCron, loc, svc.Dashboard, observability.Named(logger, "scheduler"))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	// --- Router ---
	router := handler.NewRouter(svc, handler.RouterConfig{CORSOrigins: cfg.CORSOrigins}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
