package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/format"
	"github.com/boddenberg/sales-tracker-go/internal/weekly"
)

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week [date]",
		Short: "Show the Monday-Sunday week containing a date",
		Long:  "Prints the tracking week that contains date (YYYY-MM-DD or DD/MM/YYYY, default today) in TIMEZONE.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := config.Load().Location()
			tracker := weekly.New(weekly.WithLocation(loc))

			var value string
			if len(args) == 1 {
				value = args[0]
			}
			ref, err := parseDay(value, loc)
			if err != nil {
				return err
			}
			start, end := tracker.Bounds(ref)

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, map[string]string{
					"week_start": start.Format("2006-01-02"),
					"week_end":   end.Format("2006-01-02"),
				})
			}
			fmt.Fprintf(out, "Semana %s a %s\n", format.Date(start), format.Date(end))
			return nil
		},
	}
}
