package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/infra/observability"
	"github.com/boddenberg/sales-tracker-go/internal/infra/postgres"
	"github.com/boddenberg/sales-tracker-go/internal/infra/sqlite"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations for the configured store",
		Long:  "Applies the embedded migrations to DATABASE_URL when STORE_BACKEND=postgres, and to the local SQLite file for the sqlite backend or when the fallback is enabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadServerConfig()
			logger := observability.NewLogger(cfg.LogLevel)
			defer func() { _ = logger.Sync() }()
			out := cmd.OutOrStdout()

			switch cfg.StoreBackend {
			case config.BackendPostgres:
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL is required for the %s backend", cfg.StoreBackend)
				}
				if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
					return err
				}
				fmt.Fprintln(out, "postgres schema up to date")
			case config.BackendSupabase, config.BackendMongoDB:
				fmt.Fprintf(out, "%s schema is managed outside the tracker\n", cfg.StoreBackend)
			case config.BackendMemory:
				fmt.Fprintln(out, "memory store needs no migrations")
				return nil
			}

			if cfg.StoreBackend == config.BackendSQLite || (cfg.StoreFallback && cfg.IsRemote()) {
				path := sqlitePath(cfg)
				db, err := sqlite.Open(path)
				if err != nil {
					return err
				}
				if err := db.Close(); err != nil {
					return fmt.Errorf("closing database: %w", err)
				}
				fmt.Fprintf(out, "sqlite schema up to date at %s\n", path)
			}
			return nil
		},
	}
}
