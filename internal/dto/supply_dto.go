package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSupplyRequest struct {
	Name            string           `json:"name"              validate:"required,min=2,max=120"`
	Brand           *string          `json:"brand"`
	Category        string           `json:"category"          validate:"required,oneof=FILAMENT RESIN PACKAGING ADHESIVE FINISHING PAINT OTHER"`
	UnitOfMeasure   string           `json:"unit_of_measure"`
	QuantityOnHand  decimal.Decimal  `json:"quantity_on_hand"  validate:"min=0"`
	MinimumStock    decimal.Decimal  `json:"minimum_stock"     validate:"min=0"`
	AvgUnitCost     decimal.Decimal  `json:"avg_unit_cost"     validate:"min=0"`
	Fractionable    bool             `json:"fractionable"`
	YieldTotal      *decimal.Decimal `json:"yield_total"       validate:"omitempty,gt=0"`
	ConsumptionUnit *string          `json:"consumption_unit"`
	Note            *string          `json:"note"`
}

type UpdateSupplyRequest struct {
	Name            *string          `json:"name"            validate:"omitempty,min=2,max=120"`
	Brand           *string          `json:"brand"`
	Category        *string          `json:"category"        validate:"omitempty,oneof=FILAMENT RESIN PACKAGING ADHESIVE FINISHING PAINT OTHER"`
	UnitOfMeasure   *string          `json:"unit_of_measure"`
	MinimumStock    *decimal.Decimal `json:"minimum_stock"   validate:"omitempty,min=0"`
	Fractionable    *bool            `json:"fractionable"`
	YieldTotal      *decimal.Decimal `json:"yield_total"     validate:"omitempty,gt=0"`
	ConsumptionUnit *string          `json:"consumption_unit"`
}

type ReplenishStockRequest struct {
	Quantity  decimal.Decimal `json:"quantity"   validate:"required,gt=0"`
	TotalCost decimal.Decimal `json:"total_cost" validate:"min=0"`
	Note      *string         `json:"note"`
}

type DeductStockRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required,gt=0"`
	Reason   string          `json:"reason"   validate:"required,oneof=USE WASTE DAMAGE EXPIRY ADJUSTMENT"`
	Note     *string         `json:"note"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type SupplyFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	LowStock bool   `form:"low_stock"`
	Sort     string `form:"sort"     validate:"omitempty,oneof=name quantity updated"`
	GroupBy  string `form:"group_by" validate:"omitempty,oneof=category"`
}

type MovementFilter struct {
	Kind  string `form:"kind"  validate:"omitempty,oneof=ENTRY EXIT"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplyResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Brand           *string          `json:"brand"`
	Category        string           `json:"category"`
	UnitOfMeasure   string           `json:"unit_of_measure"`
	QuantityOnHand  decimal.Decimal  `json:"quantity_on_hand"`
	MinimumStock    decimal.Decimal  `json:"minimum_stock"`
	AvgUnitCost     decimal.Decimal  `json:"avg_unit_cost"`
	LowStock        bool             `json:"low_stock"`
	Fractionable    bool             `json:"fractionable"`
	YieldTotal      *decimal.Decimal `json:"yield_total,omitempty"`
	ConsumptionUnit *string          `json:"consumption_unit,omitempty"`
	// Display-only: avg_unit_cost / yield_total for fractionable supplies.
	CostPerConsumptionUnit decimal.Decimal `json:"cost_per_consumption_unit"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

type SupplyListResponse struct {
	Supplies []SupplyResponse `json:"supplies"`
	Total    int              `json:"total"`
}

// SupplyGroupedResponse is returned when group_by=category is requested.
type SupplyGroupedResponse struct {
	Groups map[string][]SupplyResponse `json:"groups"`
	Total  int                         `json:"total"`
}

type MovementResponse struct {
	ID             string           `json:"id"`
	Kind           string           `json:"kind"`
	Quantity       decimal.Decimal  `json:"quantity"`
	TotalValue     *decimal.Decimal `json:"total_value,omitempty"`
	Reason         *string          `json:"reason,omitempty"`
	Note           *string          `json:"note,omitempty"`
	QuantityBefore decimal.Decimal  `json:"quantity_before"`
	QuantityAfter  decimal.Decimal  `json:"quantity_after"`
	CreatedAt      time.Time        `json:"created_at"`
}

type MovementListResponse struct {
	Movements []MovementResponse `json:"movements"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}
