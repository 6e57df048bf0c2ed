package domain

import "time"

// ============================================================
// Clients
// ============================================================

// BusinessType is the client's line of business.
type BusinessType string

const (
	BusinessFarmSupply BusinessType = "agropecuaria"
	BusinessPetShop    BusinessType = "petshop"
	BusinessMarket     BusinessType = "mercado"
	BusinessFarm       BusinessType = "fazenda"
)

// BusinessTypes lists every accepted business type, in display order.
var BusinessTypes = []BusinessType{BusinessFarmSupply, BusinessPetShop, BusinessMarket, BusinessFarm}

// Valid reports whether b is one of the known business types.
func (b BusinessType) Valid() bool {
	for _, v := range BusinessTypes {
		if b == v {
			return true
		}
	}
	return false
}

// Label returns the pt-BR display label.
func (b BusinessType) Label() string {
	switch b {
	case BusinessFarmSupply:
		return "Agropecuária"
	case BusinessPetShop:
		return "Pet Shop"
	case BusinessMarket:
		return "Mercado"
	case BusinessFarm:
		return "Fazenda"
	}
	return string(b)
}

// ImportanceLevel is a manually assigned priority tier.
type ImportanceLevel string

const (
	ImportanceHigh   ImportanceLevel = "high"
	ImportanceMedium ImportanceLevel = "medium"
	ImportanceLow    ImportanceLevel = "low"
)

// ImportanceLevels lists every level from highest to lowest.
var ImportanceLevels = []ImportanceLevel{ImportanceHigh, ImportanceMedium, ImportanceLow}

// Valid reports whether l is a known importance level.
func (l ImportanceLevel) Valid() bool {
	return l.Rank() > 0
}

// Rank orders levels for sorting: high=3, medium=2, low=1, unknown=0.
func (l ImportanceLevel) Rank() int {
	switch l {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	}
	return 0
}

// Client is a business contact tracked for recurring sales outreach.
type Client struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	BusinessType    BusinessType    `json:"business_type"`
	City            string          `json:"city"`
	Location        string          `json:"location"`
	ImportanceLevel ImportanceLevel `json:"importance_level"`
	CreatedAt       time.Time       `json:"created_at"`
	WeeklySales     []WeeklySale    `json:"weekly_sales"`
}

// WeeklySale flags whether a client bought during one calendar week.
// WeekStart is a Monday at midnight and WeekEnd the following Sunday.
type WeeklySale struct {
	ID        string    `json:"id"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`
	Sold      bool      `json:"sold"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientInput carries the editable fields of a client.
type ClientInput struct {
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	BusinessType    BusinessType    `json:"business_type"`
	City            string          `json:"city"`
	Location        string          `json:"location"`
	ImportanceLevel ImportanceLevel `json:"importance_level"`
}

// ClientSort selects the ordering of a client listing.
type ClientSort string

const (
	SortClientsByName       ClientSort = "name"
	SortClientsByImportance ClientSort = "importance"
	SortClientsByCreatedAt  ClientSort = "created_at"
)

// ClientQuery filters and orders a client listing. Empty fields match everything.
type ClientQuery struct {
	Search       string
	BusinessType BusinessType
	Importance   ImportanceLevel
	SortBy       ClientSort
}

// ClientView is a client as rendered by the API, with the current week's
// flag and contact links resolved.
type ClientView struct {
	Client
	BusinessLabel string `json:"business_label"`
	SoldThisWeek  bool   `json:"sold_this_week"`
	WhatsAppURL   string `json:"whatsapp_url"`
	MapsURL       string `json:"maps_url"`
}

// ToggleResult is returned by the weekly toggle endpoint.
type ToggleResult struct {
	Client ClientView `json:"client"`
	Status WeekStatus `json:"status"`
}
