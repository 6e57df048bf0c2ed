// Package format renders money, dates and reports for people to read.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money formats d as Brazilian reais, e.g. "R$ 1.234,56".
func Money(d decimal.Decimal) string {
	return "R$ " + printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Date formats t as DD/MM/YYYY.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}

// Percent formats a fraction such as 0.06 as "6%".
func Percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

// WeeklyReport renders r as a short plain-text summary.
func WeeklyReport(r *domain.WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Semana %s a %s\n", Date(r.WeekStart), Date(r.WeekEnd))
	fmt.Fprintf(&b, "Vendidos (%d): %s\n", len(r.SoldClients), list(r.SoldClients))
	fmt.Fprintf(&b, "Sem venda (%d): %s\n", len(r.UnsoldClients), list(r.UnsoldClients))
	fmt.Fprintf(&b, "Vendas: %d | Total: %s | Comissão: %s",
		r.Sales.Count, Money(r.Sales.Total), Money(r.Sales.Commission))
	return b.String()
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
