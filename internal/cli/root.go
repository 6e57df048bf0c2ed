// Package cli defines the cobra command tree for the tracker binary.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/sales-tracker-go/internal/infra/client"
)

var (
	flagFormat string
	flagDB     string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Track clients, weekly sales and commissions",
		Long:          "A sales tracker for field sellers. Mark which clients bought this week, record sales, export spreadsheets and follow the dashboard via CLI or HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: SQLITE_PATH or ~/.sales-tracker/tracker.db)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL (default: TRACKER_SERVER_URL, config or http://localhost:8080)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newWeekCmd(),
		newClientsCmd(),
		newToggleCmd(),
		newSalesCmd(),
		newStatsCmd(),
		newReportCmd(),
		newTokenCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// newAPIClient creates an HTTP client for the tracker API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getToken(), 30*time.Second)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
