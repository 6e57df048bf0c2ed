package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/infra/fallback"
	"github.com/boddenberg/sales-tracker-go/internal/infra/memory"
	"github.com/boddenberg/sales-tracker-go/internal/infra/mongodb"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/infra/postgres"
	"github.com/boddenberg/sales-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/sales-tracker-go/internal/infra/sqlite"
	"github.com/boddenberg/sales-tracker-go/internal/infra/supabase"
	"github.com/boddenberg/sales-tracker-go/internal/port"
)

// migrateRetryInterval spaces postgres migration attempts while the server
// is unreachable and the local store is serving.
var migrateRetryInterval = 30 * time.Second

// openedStore is the store selected by STORE_BACKEND, possibly wrapped in a
// fallback over the local SQLite file.
type openedStore struct {
	store port.Store
	// local names the fallback store, empty when there is none.
	local   string
	closers []func() error
}

func (o *openedStore) Close(logger *zap.Logger) {
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}
}

// sqlitePath returns the --db flag or the configured path.
func sqlitePath(cfg *config.Config) string {
	if flagDB != "" {
		return flagDB
	}
	return cfg.SQLitePath
}

func openSQLite(cfg *config.Config) (*sqlite.Store, error) {
	db, err := sqlite.Open(sqlitePath(cfg))
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(db), nil
}

// degraded reports whether a remote backend that fails at startup should be
// kept, with the local store serving until it comes back.
func degraded(cfg *config.Config) bool {
	return cfg.StoreFallback && cfg.IsRemote()
}

// openPostgres migrates and opens the pool. With the fallback enabled an
// unreachable server is not fatal: the pool dials lazily and the migration is
// retried in the background until it applies or the store is closed.
func openPostgres(ctx context.Context, cfg *config.Config, opened *openedStore, logger *zap.Logger) (*pgxpool.Pool, error) {
	if !degraded(cfg) {
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, err
		}
		return postgres.Connect(ctx, cfg.DatabaseURL)
	}

	if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
		logger.Warn("postgres unavailable at startup, serving from the local store", zap.Error(err))

		retryCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if postgres.MigrateUntilApplied(retryCtx, cfg.DatabaseURL, migrateRetryInterval, logger) {
				logger.Info("postgres schema applied after startup")
			}
		}()
		opened.closers = append(opened.closers, func() error {
			cancel()
			<-done
			return nil
		})
	}
	return postgres.Open(ctx, cfg.DatabaseURL)
}

// openMongo connects to MongoDB. With the fallback enabled a failed ping is
// logged and the store is kept.
func openMongo(ctx context.Context, cfg *config.Config, guard *resilience.Guard, logger *zap.Logger) (*mongodb.Store, error) {
	if !degraded(cfg) {
		return mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB, guard)
	}

	mg, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDB, guard)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
	defer cancel()
	if err := mg.Ping(pingCtx); err != nil {
		logger.Warn("mongodb unavailable at startup, serving from the local store", zap.Error(err))
	}
	return mg, nil
}

// openStore builds the primary backend and, for remote backends with
// STORE_FALLBACK enabled, wraps it with the local SQLite store.
func openStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (*openedStore, error) {
	guard := resilience.NewGuard(cfg.StoreBackend, resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	opened := &openedStore{}
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		if cfg.SupabaseURL == "" {
			return nil, fmt.Errorf("SUPABASE_URL is required for the %s backend", cfg.StoreBackend)
		}
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		opened.store = supabase.NewClient(httpClient, cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey, guard, logger)

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", cfg.StoreBackend)
		}
		pool, err := openPostgres(ctx, cfg, opened, logger)
		if err != nil {
			opened.Close(logger)
			return nil, err
		}
		pg := postgres.NewStore(pool, guard)
		opened.store = pg
		opened.closers = append(opened.closers, func() error { pg.Close(); return nil })

	case config.BackendMongoDB:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the %s backend", cfg.StoreBackend)
		}
		mg, err := openMongo(ctx, cfg, guard, logger)
		if err != nil {
			return nil, err
		}
		opened.store = mg
		opened.closers = append(opened.closers, func() error { return mg.Close(context.Background()) })

	case config.BackendSQLite:
		local, err := openSQLite(cfg)
		if err != nil {
			return nil, err
		}
		opened.store = local
		opened.closers = append(opened.closers, local.Close)

	case config.BackendMemory:
		opened.store = memory.New()

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if degraded(cfg) {
		local, err := openSQLite(cfg)
		if err != nil {
			opened.Close(logger)
			return nil, fmt.Errorf("opening local fallback: %w", err)
		}
		opened.closers = append(opened.closers, local.Close)
		opened.store = fallback.New(opened.store, local, metrics, logger)
		opened.local = local.Name()
	}

	logger.Info("store ready",
		zap.String("backend", opened.store.Name()),
		zap.String("fallback", opened.local),
	)
	return opened, nil
}
