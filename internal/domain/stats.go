package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStats is returned by GET /v1/dashboard/stats.
type DashboardStats struct {
	TotalClients        int                     `json:"total_clients"`
	TotalSales          int                     `json:"total_sales"`
	TotalRevenue        decimal.Decimal         `json:"total_revenue"`
	EstimatedCommission decimal.Decimal         `json:"estimated_commission"`
	CommissionRate      decimal.Decimal         `json:"commission_rate"`
	AverageSale         decimal.Decimal         `json:"average_sale"`
	SoldThisWeek        int                     `json:"sold_this_week"`
	WeekStart           time.Time               `json:"week_start"`
	WeekEnd             time.Time               `json:"week_end"`
	ClientsByImportance map[ImportanceLevel]int `json:"clients_by_importance"`
	ClientsByBusiness   map[BusinessType]int    `json:"clients_by_business"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// WeekStatus is the sold flag of one client for one week.
type WeekStatus struct {
	ClientID  string    `json:"client_id"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Sold      bool      `json:"sold"`
	SaleID    string    `json:"weekly_sale_id,omitempty"`
}

// WeeklyReport summarizes one calendar week.
type WeeklyReport struct {
	WeekStart     time.Time       `json:"week_start"`
	WeekEnd       time.Time       `json:"week_end"`
	SoldClients   []string        `json:"sold_clients"`
	UnsoldClients []string        `json:"unsold_clients"`
	Sales         SalesSummary    `json:"sales"`
	Revenue       decimal.Decimal `json:"revenue"`
}
