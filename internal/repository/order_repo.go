package repository

import (
	"context"
	"time"

	"printlog/internal/dto"
	"printlog/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// List returns orders in a single archival bucket: archived=false for
	// the working board, archived=true for the archive view.
	List(ctx context.Context, filter dto.OrderFilter, archived bool) ([]model.Order, int64, error)
	SaveTx(tx *gorm.DB, o *model.Order) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// ArchiveCompletedBefore flips DONE orders completed before cutoff to
	// ARCHIVED. Runs as one bulk row-level UPDATE on the read path.
	ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	// SupplyLines are created through the association in the same insert.
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Preload("SupplyLines").First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter, archived bool) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})

	if archived {
		q = q.Where("status = ?", model.StatusArchived)
	} else {
		q = q.Where("status <> ?", model.StatusArchived)
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
	}
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.DueBefore != nil {
		q = q.Where("due_date IS NOT NULL AND due_date <= ?", *filter.DueBefore)
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

	var orders []model.Order
	err := q.Preload("SupplyLines").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) SaveTx(tx *gorm.DB, o *model.Order) error {
	// Omit the association: supply lines are immutable after creation.
	return tx.Omit("SupplyLines").Save(o).Error
}

func (r *orderRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Delete(&model.OrderSupplyLine{}, "order_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Order{}, "id = ?", id).Error
}

func (r *orderRepo) ArchiveCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND completed_at IS NOT NULL AND completed_at < ?", model.StatusDone, cutoff).
		Update("status", model.StatusArchived)
	return res.RowsAffected, res.Error
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
