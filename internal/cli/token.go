package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/boddenberg/sales-tracker-go/internal/service"
)

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	var save bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with AUTH_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadServerConfig()
			token, expires, err := service.NewTokenService(cfg.AuthSecret, ttl).Issue(subject)
			if err != nil {
				return err
			}

			if save {
				cliCfg, err := loadConfig()
				if err != nil {
					return err
				}
				cliCfg.Token = token
				if err := saveConfig(cliCfg); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, map[string]any{"token": token, "expires_at": expires})
			}
			fmt.Fprintln(out, token)
			if save {
				fmt.Fprintf(out, "Saved. Expires %s\n", expires.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default 30 days)")
	cmd.Flags().BoolVar(&save, "save", false, "store the token in the CLI config")
	return cmd
}
