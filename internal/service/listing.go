package service

import (
	"sort"
	"strings"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// filterAll is the sentinel the UI sends for "no filter".
const filterAll = "all"

func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FilterClients keeps the clients matching q. Search is a case-insensitive
// substring match on name or city; empty or "all" filters match everything.
func FilterClients(clients []domain.Client, q domain.ClientQuery) []domain.Client {
	search := strings.TrimSpace(q.Search)
	out := make([]domain.Client, 0, len(clients))
	for _, c := range clients {
		if search != "" && !containsFold(c.Name, search) && !containsFold(c.City, search) {
			continue
		}
		if q.BusinessType != "" && q.BusinessType != filterAll && c.BusinessType != q.BusinessType {
			continue
		}
		if q.Importance != "" && q.Importance != filterAll && c.ImportanceLevel != q.Importance {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SortClients returns a sorted copy. Unknown or empty keys sort by importance.
func SortClients(clients []domain.Client, by domain.ClientSort) []domain.Client {
	out := make([]domain.Client, len(clients))
	copy(out, clients)

	switch by {
	case domain.SortClientsByName:
		col := newCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	case domain.SortClientsByCreatedAt:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ImportanceLevel.Rank() > out[j].ImportanceLevel.Rank()
		})
	}
	return out
}

// FilterSales keeps the sales matching q. Day compares calendar dates in loc,
// whatever zone q.Day carries.
func FilterSales(sales []domain.Sale, q domain.SaleQuery, loc *time.Location) []domain.Sale {
	client := strings.TrimSpace(q.ClientName)
	var dy int
	var dm time.Month
	var dd int
	if !q.Day.IsZero() {
		dy, dm, dd = q.Day.In(loc).Date()
	}

	out := make([]domain.Sale, 0, len(sales))
	for _, s := range sales {
		if !q.Day.IsZero() {
			y, m, d := s.Date.In(loc).Date()
			if y != dy || m != dm || d != dd {
				continue
			}
		}
		if client != "" && !containsFold(s.ClientName, client) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SortSales returns a sorted copy, by date descending unless told otherwise.
func SortSales(sales []domain.Sale, by domain.SaleSort, order domain.SortOrder) []domain.Sale {
	out := make([]domain.Sale, len(sales))
	copy(out, sales)

	asc := order == domain.OrderAsc
	less := func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if asc {
			return a.Before(b)
		}
		return a.After(b)
	}
	if by == domain.SortSalesByValue {
		less = func(i, j int) bool {
			if asc {
				return out[i].Value.LessThan(out[j].Value)
			}
			return out[i].Value.GreaterThan(out[j].Value)
		}
	}
	sort.SliceStable(out, less)
	return out
}

// Summarize totals sales. Average and commission are rounded to cents;
// an empty list yields zeros.
func Summarize(sales []domain.Sale, commissionRate decimal.Decimal) domain.SalesSummary {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Value)
	}
	summary := domain.SalesSummary{
		Count:      len(sales),
		Total:      total,
		Average:    decimal.Zero,
		Commission: total.Mul(commissionRate).Round(2),
	}
	if len(sales) > 0 {
		summary.Average = total.Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
	}
	return summary
}
