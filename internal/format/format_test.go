package format

import (
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "R$ 150,50", Money(decimal.RequireFromString("150.5")))
	assert.Equal(t, "R$ 0,00", Money(decimal.Zero))
	assert.Equal(t, "R$ 9,03", Money(decimal.RequireFromString("9.0300")))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "6%", Percent(decimal.RequireFromString("0.06")))
	assert.Equal(t, "7.5%", Percent(decimal.RequireFromString("0.075")))
}

func TestWeeklyReport(t *testing.T) {
	start := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	out := WeeklyReport(&domain.WeeklyReport{
		WeekStart:     start,
		WeekEnd:       start.AddDate(0, 0, 6),
		SoldClients:   []string{"Agro Silva"},
		UnsoldClients: nil,
		Sales: domain.SalesSummary{
			Count:      1,
			Total:      decimal.NewFromInt(200),
			Commission: decimal.NewFromInt(12),
		},
	})

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "Semana 11/03/2024 a 17/03/2024", lines[0])
	assert.Equal(t, "Vendidos (1): Agro Silva", lines[1])
	assert.Equal(t, "Sem venda (0): -", lines[2])
	assert.Equal(t, "Vendas: 1 | Total: R$ 200,00 | Comissão: R$ 12,00", lines[3])
}
