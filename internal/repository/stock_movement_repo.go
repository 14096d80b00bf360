package repository

import (
	"context"

	"printlog/internal/dto"
	"printlog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	// CreateTx appends a movement inside the same transaction that updates
	// the supply row, so ledger state and history commit atomically.
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	ListBySupply(ctx context.Context, supplyID uuid.UUID, filter dto.MovementFilter) ([]model.StockMovement, int64, error)
	DeleteBySupplyTx(tx *gorm.DB, supplyID uuid.UUID) error
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) ListBySupply(ctx context.Context, supplyID uuid.UUID, filter dto.MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("supply_id = ?", supplyID)
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	var movements []model.StockMovement
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) DeleteBySupplyTx(tx *gorm.DB, supplyID uuid.UUID) error {
	return tx.Delete(&model.StockMovement{}, "supply_id = ?", supplyID).Error
}
