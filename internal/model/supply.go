package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supply categories — closed enumeration, validated at the DTO layer.
const (
	CategoryFilament  = "FILAMENT"
	CategoryResin     = "RESIN"
	CategoryPackaging = "PACKAGING"
	CategoryAdhesive  = "ADHESIVE"
	CategoryFinishing = "FINISHING"
	CategoryPaint     = "PAINT"
	CategoryOther     = "OTHER"
)

// Supply is a consumable stock item (insumo): filament spools, resin
// bottles, boxes, sandpaper, etc. QuantityOnHand never goes negative and
// AvgUnitCost only changes on replenishment (weighted average).
type Supply struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"index;not null"`
	Brand        *string
	Category     string          `gorm:"not null;default:'OTHER'"`
	UnitOfMeasure string         `gorm:"not null;default:'un'"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	MinimumStock   decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	AvgUnitCost    decimal.Decimal `gorm:"type:decimal(14,4);not null"`

	// Fractionable supplies are bought as one unit but consumed in smaller
	// ones (a 1 kg spool consumed by the gram). YieldTotal and
	// ConsumptionUnit only drive the displayed per-consumption-unit cost;
	// the ledger itself always works in UnitOfMeasure.
	Fractionable    bool `gorm:"not null;default:false"`
	YieldTotal      *decimal.Decimal `gorm:"type:decimal(14,3)"`
	ConsumptionUnit *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Movements []StockMovement `gorm:"foreignKey:SupplyID"`
}

// LowStock is derived, never stored.
func (s *Supply) LowStock() bool {
	return s.QuantityOnHand.Cmp(s.MinimumStock) <= 0
}

// CostPerConsumptionUnit returns the display-only effective cost for
// fractionable supplies, or zero when not applicable.
func (s *Supply) CostPerConsumptionUnit() decimal.Decimal {
	if !s.Fractionable || s.YieldTotal == nil || s.YieldTotal.IsZero() {
		return decimal.Zero
	}
	return s.AvgUnitCost.DivRound(*s.YieldTotal, 4)
}
