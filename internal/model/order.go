package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. ARCHIVED is terminal and never user-initiated: the read
// path reclassifies orders DONE past the retention window.
const (
	StatusToDo         = "TO_DO"
	StatusInProduction = "IN_PRODUCTION"
	StatusFinishing    = "FINISHING"
	StatusDone         = "DONE"
	StatusArchived     = "ARCHIVED"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusToDo, StatusInProduction, StatusFinishing, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Order is a production job (pedido). Invariant: CompletedAt is set if and
// only if Status == DONE. Transitions are deliberately unrestricted — the
// kanban board moves cards in any direction.
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"not null"`
	Status      string    `gorm:"not null;default:'TO_DO';index"`
	// PriceCents is the agreed price in minor currency units.
	PriceCents  int64 `gorm:"not null"`
	CompletedAt *time.Time
	DueDate     *time.Time

	Material     *string
	WeightGrams  *decimal.Decimal `gorm:"type:decimal(10,2)"`
	PrintMinutes *int
	MachineID    *uuid.UUID `gorm:"type:uuid"`
	Notes        string

	CreatedAt time.Time
	UpdatedAt time.Time

	SupplyLines []OrderSupplyLine `gorm:"foreignKey:OrderID"`
}

// OrderSupplyLine records a secondary supply selected for an order with the
// name and unit cost snapshotted at selection time. Lines are bookkeeping
// only — nothing deducts them from the stock ledger.
type OrderSupplyLine struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplyID   uuid.UUID       `gorm:"type:uuid;not null"`
	SupplyName string          `gorm:"not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(14,4);not null"`
}

func (OrderSupplyLine) TableName() string { return "order_supply_lines" }
