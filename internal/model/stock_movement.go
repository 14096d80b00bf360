package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement kinds.
const (
	MovementEntry = "ENTRY"
	MovementExit  = "EXIT"
)

// Exit reasons — closed enumeration.
const (
	ReasonUse        = "USE"
	ReasonWaste      = "WASTE"
	ReasonDamage     = "DAMAGE"
	ReasonExpiry     = "EXPIRY"
	ReasonAdjustment = "ADJUSTMENT"
)

// StockMovement is one immutable ledger entry for a supply. Rows are only
// ever appended — there is no update or delete path except when the owning
// supply is hard-deleted together with its history.
type StockMovement struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SupplyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind     string    `gorm:"not null"` // ENTRY | EXIT
	Quantity decimal.Decimal `gorm:"type:decimal(14,3);not null"` // always positive
	// TotalValue is the money spent on an ENTRY (feeds the weighted
	// average); nil for EXIT.
	TotalValue *decimal.Decimal `gorm:"type:decimal(14,2)"`
	// Reason is set on EXIT movements only.
	Reason *string
	Note   *string

	// On-hand snapshot around the movement, for audit trails.
	QuantityBefore decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(14,3);not null"`

	CreatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
