package repository

import (
	"context"

	"printlog/internal/dto"
	"printlog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplyRepository defines the data access contract for supplies.
// Services depend on this interface, not on the concrete GORM
// implementation, enabling clean unit testing via stubs.
type SupplyRepository interface {
	CreateTx(tx *gorm.DB, s *model.Supply) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supply, error)
	List(ctx context.Context, filter dto.SupplyFilter) ([]model.Supply, error)
	Save(ctx context.Context, s *model.Supply) error
	SaveTx(tx *gorm.DB, s *model.Supply) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type supplyRepo struct{ db *gorm.DB }

func NewSupplyRepository(db *gorm.DB) SupplyRepository { return &supplyRepo{db: db} }

func (r *supplyRepo) CreateTx(tx *gorm.DB, s *model.Supply) error {
	return tx.Create(s).Error
}

func (r *supplyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supply, error) {
	var s model.Supply
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplyRepo) List(ctx context.Context, filter dto.SupplyFilter) ([]model.Supply, error) {
	q := r.db.WithContext(ctx).Model(&model.Supply{})

	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		q = q.Where("quantity_on_hand <= minimum_stock")
	}

	switch filter.Sort {
	case "quantity":
		q = q.Order("quantity_on_hand ASC")
	case "updated":
		q = q.Order("updated_at DESC")
	default:
		q = q.Order("name ASC")
	}

	var supplies []model.Supply
	err := q.Find(&supplies).Error
	return supplies, err
}

func (r *supplyRepo) Save(ctx context.Context, s *model.Supply) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *supplyRepo) SaveTx(tx *gorm.DB, s *model.Supply) error {
	return tx.Save(s).Error
}

// DeleteTx removes the supply row. Movement history is removed by the
// caller in the same transaction (hard delete, no tombstone).
func (r *supplyRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Supply{}, "id = ?", id).Error
}

func (r *supplyRepo) DB() *gorm.DB { return r.db }
