package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/format"
)

func newSalesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Manage sales on the tracker server",
	}
	cmd.AddCommand(newSalesListCmd(), newSalesAddCmd(), newSalesRemoveCmd(), newSalesExportCmd())
	return cmd
}

// saleFilterFlags are shared by list and export.
type saleFilterFlags struct {
	date   string
	client string
}

func (f *saleFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "only sales on this day (YYYY-MM-DD or DD/MM/YYYY)")
	cmd.Flags().StringVar(&f.client, "client", "", "client name contains")
}

func (f *saleFilterFlags) query() (domain.SaleQuery, error) {
	day, err := parseDay(f.date, config.Load().Location())
	if err != nil {
		return domain.SaleQuery{}, err
	}
	return domain.SaleQuery{Day: day, ClientName: f.client}, nil
}

func newSalesListCmd() *cobra.Command {
	var filter saleFilterFlags
	var sortBy, order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sales with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filter.query()
			if err != nil {
				return err
			}
			q.SortBy = domain.SaleSort(sortBy)
			q.Order = domain.SortOrder(order)

			list, err := newAPIClient().ListSales(cmd.Context(), q)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printSaleTable(cmd.OutOrStdout(), list)
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by (date|value)")
	cmd.Flags().StringVar(&order, "order", "", "sort order (asc|desc)")
	return cmd
}

func newSalesAddCmd() *cobra.Command {
	var clientName, city, date string

	cmd := &cobra.Command{
		Use:   "add <value>",
		Short: "Record a sale",
		Long:  "Record a sale of value (e.g. 150.50 or 150,50) for --client in --city. --date defaults to today.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(strings.Replace(args[0], ",", ".", 1))
			if err != nil {
				return fmt.Errorf("invalid value %q", args[0])
			}
			day, err := parseDay(date, config.Load().Location())
			if err != nil {
				return err
			}

			sale, err := newAPIClient().CreateSale(cmd.Context(), domain.SaleInput{
				Value:      value,
				ClientName: clientName,
				City:       city,
				Date:       day,
			})
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), sale)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sale %s recorded: %s para %s em %s.\n",
				sale.ID, format.Money(sale.Value), sale.ClientName, format.Date(sale.Date))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "", "client name (required)")
	cmd.Flags().StringVar(&city, "city", "", "city (required)")
	cmd.Flags().StringVar(&date, "date", "", "sale day (YYYY-MM-DD or DD/MM/YYYY)")
	return cmd
}

func newSalesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a sale",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().DeleteSale(cmd.Context(), args[0]); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "removed": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sale %s removed.\n", args[0])
			return nil
		},
	}
}

func newSalesExportCmd() *cobra.Command {
	var filter saleFilterFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the sales spreadsheet (.xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filter.query()
			if err != nil {
				return err
			}
			if output == "" {
				output = "vendas-" + time.Now().Format("2006-01-02") + ".xlsx"
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := newAPIClient().ExportSales(cmd.Context(), q, f); err != nil {
				_ = f.Close()
				_ = os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]string{"file": output})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
			return nil
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default vendas-YYYY-MM-DD.xlsx)")
	return cmd
}
