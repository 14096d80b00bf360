package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SupplyLineRequest struct {
	SupplyID string          `json:"supply_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity"  validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	ClientID    string           `json:"client_id"    validate:"required,uuid"`
	Description string           `json:"description"  validate:"required,min=1,max=500"`
	PriceCents  int64            `json:"price_cents"  validate:"required,gt=0"`
	DueDate     *time.Time       `json:"due_date"`
	Material    *string          `json:"material"`
	WeightGrams *decimal.Decimal `json:"weight_grams"  validate:"omitempty,gt=0"`
	PrintMinutes *int            `json:"print_minutes" validate:"omitempty,gt=0"`
	MachineID   *string          `json:"machine_id"    validate:"omitempty,uuid"`
	Notes       string           `json:"notes"`
	SupplyLines []SupplyLineRequest `json:"supply_lines" validate:"omitempty,dive"`
}

type UpdateOrderRequest struct {
	ClientID    *string          `json:"client_id"    validate:"omitempty,uuid"`
	Description *string          `json:"description"  validate:"omitempty,min=1,max=500"`
	Status      *string          `json:"status"       validate:"omitempty,oneof=TO_DO IN_PRODUCTION FINISHING DONE ARCHIVED"`
	PriceCents  *int64           `json:"price_cents"  validate:"omitempty,gt=0"`
	DueDate     *time.Time       `json:"due_date"`
	Material    *string          `json:"material"`
	WeightGrams *decimal.Decimal `json:"weight_grams"  validate:"omitempty,gt=0"`
	PrintMinutes *int            `json:"print_minutes" validate:"omitempty,gt=0"`
	MachineID   *string          `json:"machine_id"    validate:"omitempty,uuid"`
	Notes       *string          `json:"notes"`
}

type MoveOrderRequest struct {
	Status string `json:"status" validate:"required,oneof=TO_DO IN_PRODUCTION FINISHING DONE ARCHIVED"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type OrderFilter struct {
	Status    string     `form:"status"    validate:"omitempty,oneof=TO_DO IN_PRODUCTION FINISHING DONE"`
	ClientID  string     `form:"client_id" validate:"omitempty,uuid"`
	DueBefore *time.Time `form:"due_before" time_format:"2006-01-02"`
	Page      int        `form:"page,default=1"   validate:"min=1"`
	Limit     int        `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplyLineResponse struct {
	SupplyID   string          `json:"supply_id"`
	SupplyName string          `json:"supply_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
}

type OrderResponse struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	ClientID    string           `json:"client_id"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	PriceCents  int64            `json:"price_cents"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
	Material    *string          `json:"material,omitempty"`
	WeightGrams *decimal.Decimal `json:"weight_grams,omitempty"`
	PrintMinutes *int            `json:"print_minutes,omitempty"`
	MachineID   *string          `json:"machine_id,omitempty"`
	Notes       string           `json:"notes"`
	SupplyLines []SupplyLineResponse `json:"supply_lines"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}
