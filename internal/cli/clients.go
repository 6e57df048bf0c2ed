package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boddenberg/sales-tracker-go/internal/config"
	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/format"
)

func newClientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage clients on the tracker server",
	}
	cmd.AddCommand(newClientsListCmd(), newClientsAddCmd(), newClientsRemoveCmd())
	return cmd
}

func newClientsListCmd() *cobra.Command {
	var q domain.ClientQuery
	var businessType, importance, sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.BusinessType = domain.BusinessType(businessType)
			q.Importance = domain.ImportanceLevel(importance)
			q.SortBy = domain.ClientSort(sortBy)

			clients, err := newAPIClient().ListClients(cmd.Context(), q)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), clients)
			}
			return printClientTable(cmd.OutOrStdout(), clients)
		},
	}

	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "match name, city or phone")
	cmd.Flags().StringVar(&businessType, "type", "", "business type (agropecuaria|petshop|mercado|fazenda)")
	cmd.Flags().StringVar(&importance, "importance", "", "importance level (high|medium|low)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by (name|importance|created_at)")
	return cmd
}

func newClientsAddCmd() *cobra.Command {
	var in domain.ClientInput
	var businessType, importance string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			in.BusinessType = domain.BusinessType(businessType)
			in.ImportanceLevel = domain.ImportanceLevel(importance)

			created, err := newAPIClient().CreateClient(cmd.Context(), in)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), created)
			}
			printClientSummary(cmd.OutOrStdout(), created)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number (required)")
	cmd.Flags().StringVar(&in.City, "city", "", "city (required)")
	cmd.Flags().StringVar(&in.Location, "location", "", "street address or maps query")
	cmd.Flags().StringVar(&businessType, "type", "", "business type (default agropecuaria)")
	cmd.Flags().StringVar(&importance, "importance", "", "importance level (default medium)")
	return cmd
}

func newClientsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a client",
		Long:    "Remove a client and its weekly sale records. Recorded sales are kept.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().DeleteClient(cmd.Context(), args[0]); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "removed": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Client %s removed.\n", args[0])
			return nil
		},
	}
}

func newToggleCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "toggle <client-id>",
		Short: "Flip a client's sold flag for the week",
		Long:  "Marks the client as sold (or unsold) for the week containing --date, default the current week.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseDay(date, config.Load().Location())
			if err != nil {
				return err
			}
			result, err := newAPIClient().ToggleWeeklySale(cmd.Context(), args[0], ref)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), result)
			}

			state := "sem venda"
			if result.Status.Sold {
				state = "vendido"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s na semana %s a %s\n",
				result.Client.Name, state,
				format.Date(result.Status.WeekStart), format.Date(result.Status.WeekEnd))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "any day of the target week (YYYY-MM-DD or DD/MM/YYYY)")
	return cmd
}
