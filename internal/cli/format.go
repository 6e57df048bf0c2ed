package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"
	"github.com/boddenberg/sales-tracker-go/internal/format"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printClientTable prints a client listing as a formatted table.
func printClientTable(w io.Writer, clients []domain.ClientView) error {
	if len(clients) == 0 {
		fmt.Fprintln(w, "No clients found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCITY\tIMPORTANCE\tWEEK"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t----\t----\t----\t----------\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	sold := 0
	for _, c := range clients {
		week := "-"
		if c.SoldThisWeek {
			week = "vendido"
			sold++
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, truncate(c.Name, 32), c.BusinessLabel, c.City, c.ImportanceLevel, week); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nTotal: %d clients, %d sold this week\n", len(clients), sold)
	return nil
}

// printClientSummary prints a single client in text format.
func printClientSummary(w io.Writer, c *domain.ClientView) {
	fmt.Fprintf(w, "Client %s\n", c.ID)
	fmt.Fprintf(w, "  Name:       %s\n", c.Name)
	fmt.Fprintf(w, "  Type:       %s\n", c.BusinessLabel)
	fmt.Fprintf(w, "  City:       %s\n", c.City)
	if c.Location != "" {
		fmt.Fprintf(w, "  Location:   %s\n", c.Location)
	}
	fmt.Fprintf(w, "  Importance: %s\n", c.ImportanceLevel)
	fmt.Fprintf(w, "  WhatsApp:   %s\n", c.WhatsAppURL)
	fmt.Fprintf(w, "  Maps:       %s\n", c.MapsURL)
}

// printSaleTable prints a sale listing followed by its summary.
func printSaleTable(w io.Writer, list *domain.SaleList) error {
	if len(list.Sales) == 0 {
		fmt.Fprintln(w, "No sales found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tDATE\tCLIENT\tCITY\tVALUE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t----\t------\t----\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, s := range list.Sales {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, format.Date(s.Date), truncate(s.ClientName, 32), s.City, format.Money(s.Value)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	sum := list.Summary
	fmt.Fprintf(w, "\nVendas: %d | Total: %s | Média: %s | Comissão: %s\n",
		sum.Count, format.Money(sum.Total), format.Money(sum.Average), format.Money(sum.Commission))
	return nil
}

// printStats prints the dashboard aggregates in text format.
func printStats(w io.Writer, s *domain.DashboardStats) {
	fmt.Fprintf(w, "Semana %s a %s\n", format.Date(s.WeekStart), format.Date(s.WeekEnd))
	fmt.Fprintf(w, "  Clientes:        %d (%d vendidos na semana)\n", s.TotalClients, s.SoldThisWeek)
	fmt.Fprintf(w, "  Vendas:          %d\n", s.TotalSales)
	fmt.Fprintf(w, "  Faturamento:     %s\n", format.Money(s.TotalRevenue))
	fmt.Fprintf(w, "  Ticket médio:    %s\n", format.Money(s.AverageSale))
	fmt.Fprintf(w, "  Comissão (%s): %s\n", format.Percent(s.CommissionRate), format.Money(s.EstimatedCommission))

	fmt.Fprintln(w, "  Importância:")
	for _, level := range domain.ImportanceLevels {
		fmt.Fprintf(w, "    %-8s %d\n", level, s.ClientsByImportance[level])
	}
	fmt.Fprintln(w, "  Ramo:")
	for _, bt := range domain.BusinessTypes {
		fmt.Fprintf(w, "    %-14s %d\n", bt.Label(), s.ClientsByBusiness[bt])
	}
}

// parseDay parses YYYY-MM-DD or DD/MM/YYYY as midnight in loc. Empty input
// yields the zero time.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or DD/MM/YYYY", value)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
