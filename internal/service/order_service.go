package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"printlog/internal/apperr"
	"printlog/internal/dto"
	"printlog/internal/metrics"
	"printlog/internal/model"
	"printlog/internal/repository"
	"printlog/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// UsageQueue is the slice of the worker dispatcher the order service needs.
type UsageQueue interface {
	EnqueueUsage(ctx context.Context, payload worker.UsagePayload) error
}

// OrderService is the production-order lifecycle: creation, free-form field
// edits, the status state machine with its completion-timestamp rule, the
// read-time archival sweep, and the fire-and-forget usage notification.
type OrderService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	Move(ctx context.Context, id uuid.UUID, newStatus string) (*dto.OrderResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List archives stale DONE orders first, then returns the working set
	// (ARCHIVED excluded). ListArchived returns only ARCHIVED orders.
	List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	ListArchived(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

type orderService struct {
	orders    repository.OrderRepository
	supplies  repository.SupplyRepository
	usage     UsageQueue
	retention time.Duration
	now       func() time.Time
}

// NewOrderService wires the lifecycle service. retentionDays is the archival
// window for completed orders; usage may be nil when no recorder is deployed.
func NewOrderService(orders repository.OrderRepository, supplies repository.SupplyRepository, usage UsageQueue, retentionDays int) OrderService {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &orderService{
		orders:    orders,
		supplies:  supplies,
		usage:     usage,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *orderService) Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperr.Validation("client_id inválido")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.Validation("descrição do pedido é obrigatória")
	}
	if req.PriceCents <= 0 {
		return nil, apperr.Validation("preço deve ser maior que zero")
	}

	order := &model.Order{
		OwnerID:      ownerID,
		ClientID:     clientID,
		Description:  strings.TrimSpace(req.Description),
		Status:       model.StatusToDo,
		PriceCents:   req.PriceCents,
		DueDate:      req.DueDate,
		Material:     req.Material,
		WeightGrams:  req.WeightGrams,
		PrintMinutes: req.PrintMinutes,
		Notes:        req.Notes,
	}
	if req.MachineID != nil {
		mid, err := uuid.Parse(*req.MachineID)
		if err != nil {
			return nil, apperr.Validation("machine_id inválido")
		}
		order.MachineID = &mid
	}

	// Secondary supply lines snapshot name and current average cost at
	// selection time. They are bookkeeping only: nothing is deducted from
	// the ledger here.
	for _, line := range req.SupplyLines {
		sid, err := uuid.Parse(line.SupplyID)
		if err != nil {
			return nil, apperr.Validation("supply_id inválido em supply_lines")
		}
		supply, err := s.supplies.FindByID(ctx, sid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("insumo %s não encontrado", line.SupplyID)
			}
			return nil, apperr.Internal("não foi possível consultar o insumo", err)
		}
		order.SupplyLines = append(order.SupplyLines, model.OrderSupplyLine{
			SupplyID:   supply.ID,
			SupplyName: supply.Name,
			Quantity:   line.Quantity,
			UnitCost:   supply.AvgUnitCost,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Internal("não foi possível criar o pedido", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("client_id", order.ClientID.String()).
		Msg("order: created")
	return toOrderResponse(order), nil
}

// ── Update ───────────────────────────────────────────────────────────────────
// Partial field edit. A status change here honors the same completion
// timestamp rule as Move.

func (s *orderService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, apperr.Validation("client_id inválido")
		}
		order.ClientID = cid
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, apperr.Validation("descrição do pedido é obrigatória")
		}
		order.Description = strings.TrimSpace(*req.Description)
	}
	if req.PriceCents != nil {
		if *req.PriceCents <= 0 {
			return nil, apperr.Validation("preço deve ser maior que zero")
		}
		order.PriceCents = *req.PriceCents
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}
	if req.Material != nil {
		order.Material = req.Material
	}
	if req.WeightGrams != nil {
		order.WeightGrams = req.WeightGrams
	}
	if req.PrintMinutes != nil {
		order.PrintMinutes = req.PrintMinutes
	}
	if req.MachineID != nil {
		mid, err := uuid.Parse(*req.MachineID)
		if err != nil {
			return nil, apperr.Validation("machine_id inválido")
		}
		order.MachineID = &mid
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.Status != nil && *req.Status != order.Status {
		s.applyStatus(order, *req.Status)
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		return s.orders.SaveTx(tx, order)
	})
	if err != nil {
		return nil, apperr.Internal("não foi possível atualizar o pedido", err)
	}

	zerolog.Ctx(ctx).Info().Str("order_id", order.ID.String()).Msg("order: updated")
	return toOrderResponse(order), nil
}

// ── Move ─────────────────────────────────────────────────────────────────────
// The transition table is deliberately permissive: any status can be set
// from any other. The one enforced rule is the completion timestamp —
// set on entry into DONE, cleared on exit. The whole move is a single row
// transaction; if it fails, the stored order keeps its pre-move state and
// the caller gets an internal error.

func (s *orderService) Move(ctx context.Context, id uuid.UUID, newStatus string) (*dto.OrderResponse, error) {
	if !model.ValidStatus(newStatus) {
		return nil, apperr.Validation("status desconhecido: %s", newStatus)
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == newStatus {
		return toOrderResponse(order), nil
	}

	s.applyStatus(order, newStatus)

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		return s.orders.SaveTx(tx, order)
	})
	if err != nil {
		return nil, apperr.Internal("não foi possível mover o pedido", err)
	}

	metrics.OrderTransitions.WithLabelValues(newStatus).Inc()
	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("status", newStatus).
		Msg("order: moved")

	// Fire-and-forget: the usage recorder must never block or revert a
	// completed transition. Failures are logged, not surfaced.
	if newStatus == model.StatusDone && order.MachineID != nil && order.PrintMinutes != nil && s.usage != nil {
		payload := worker.UsagePayload{
			OrderID:   order.ID.String(),
			MachineID: order.MachineID.String(),
			Minutes:   *order.PrintMinutes,
		}
		if err := s.usage.EnqueueUsage(ctx, payload); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("order_id", order.ID.String()).
				Msg("order: failed to enqueue usage job")
		} else {
			metrics.UsageJobs.WithLabelValues("enqueued").Inc()
		}
	}

	return toOrderResponse(order), nil
}

// applyStatus sets the new status and keeps the invariant
// "CompletedAt is set iff Status == DONE".
func (s *orderService) applyStatus(order *model.Order, newStatus string) {
	entering := newStatus == model.StatusDone && order.Status != model.StatusDone
	leaving := newStatus != model.StatusDone && order.Status == model.StatusDone

	order.Status = newStatus
	if entering {
		now := s.now()
		order.CompletedAt = &now
	} else if leaving {
		order.CompletedAt = nil
	}
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findOrder(ctx, id); err != nil {
		return err
	}

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		return s.orders.DeleteTx(tx, id)
	})
	if err != nil {
		return apperr.Internal("não foi possível excluir o pedido", err)
	}

	zerolog.Ctx(ctx).Info().Str("order_id", id.String()).Msg("order: deleted")
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

func (s *orderService) List(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	s.sweep(ctx)
	return s.list(ctx, filter, false)
}

func (s *orderService) ListArchived(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	s.sweep(ctx)
	return s.list(ctx, filter, true)
}

// sweep reclassifies long-completed orders as ARCHIVED before any listing
// is returned. The sweep lives on the read path on purpose: no scheduler,
// at the cost of an order staying visibly DONE until the next list call.
func (s *orderService) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)
	archived, err := s.orders.ArchiveCompletedBefore(ctx, cutoff)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("order: archival sweep failed")
		return
	}
	if archived > 0 {
		zerolog.Ctx(ctx).Info().Int64("archived", archived).Msg("order: archival sweep")
	}
}

func (s *orderService) list(ctx context.Context, filter dto.OrderFilter, archived bool) (*dto.OrderListResponse, error) {
	orders, total, err := s.orders.List(ctx, filter, archived)
	if err != nil {
		return nil, apperr.Internal("não foi possível listar os pedidos", err)
	}

	resp := &dto.OrderListResponse{
		Orders: make([]dto.OrderResponse, 0, len(orders)),
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, *toOrderResponse(&orders[i]))
	}
	return resp, nil
}

// ─────────────────────────────────────────────────────────────────────────────

func (s *orderService) findOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pedido não encontrado")
		}
		return nil, apperr.Internal("não foi possível consultar o pedido", err)
	}
	return order, nil
}

func toOrderResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:           o.ID.String(),
		OwnerID:      o.OwnerID.String(),
		ClientID:     o.ClientID.String(),
		Description:  o.Description,
		Status:       o.Status,
		PriceCents:   o.PriceCents,
		CompletedAt:  o.CompletedAt,
		DueDate:      o.DueDate,
		Material:     o.Material,
		WeightGrams:  o.WeightGrams,
		PrintMinutes: o.PrintMinutes,
		Notes:        o.Notes,
		SupplyLines:  make([]dto.SupplyLineResponse, 0, len(o.SupplyLines)),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if o.MachineID != nil {
		mid := o.MachineID.String()
		resp.MachineID = &mid
	}
	for _, line := range o.SupplyLines {
		resp.SupplyLines = append(resp.SupplyLines, dto.SupplyLineResponse{
			SupplyID:   line.SupplyID.String(),
			SupplyName: line.SupplyName,
			Quantity:   line.Quantity,
			UnitCost:   line.UnitCost,
		})
	}
	return resp
}
