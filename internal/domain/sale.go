package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Sales
// ============================================================

// Sale is a single recorded transaction. ClientName is a denormalized copy
// of the client's name at the time of the sale; it is not kept in sync with
// Client records and survives client deletion.
type Sale struct {
	ID         string          `json:"id"`
	Value      decimal.Decimal `json:"value"`
	ClientName string          `json:"client_name"`
	City       string          `json:"city"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SaleInput carries the editable fields of a sale.
type SaleInput struct {
	Value      decimal.Decimal `json:"value"`
	ClientName string          `json:"client_name"`
	City       string          `json:"city"`
	Date       time.Time       `json:"date"`
}

// SaleSort selects the field a sale listing is ordered by.
type SaleSort string

const (
	SortSalesByValue SaleSort = "value"
	SortSalesByDate  SaleSort = "date"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SaleQuery filters and orders a sale listing.
// Day, when non-zero, keeps only sales on that calendar day.
type SaleQuery struct {
	Day        time.Time
	ClientName string
	SortBy     SaleSort
	Order      SortOrder
}

// SalesSummary aggregates a list of sales.
type SalesSummary struct {
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Average    decimal.Decimal `json:"average"`
	Commission decimal.Decimal `json:"commission"`
}

// SaleList is a filtered listing together with its summary.
type SaleList struct {
	Sales   []Sale       `json:"sales"`
	Summary SalesSummary `json:"summary"`
}
