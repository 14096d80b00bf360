package service

import (
	"context"
	"errors"
	"strings"

	"printlog/internal/apperr"
	"printlog/internal/dto"
	"printlog/internal/metrics"
	"printlog/internal/model"
	"printlog/internal/repository"
	"printlog/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertQueue is the slice of the worker dispatcher the stock service needs.
// *worker.Dispatcher satisfies it; tests plug a recorder.
type AlertQueue interface {
	EnqueueLowStockAlert(ctx context.Context, payload worker.LowStockPayload) error
}

// StockService is the supply stock ledger: quantity tracking, weighted
// average costing, and the append-only movement history.
type StockService interface {
	Register(ctx context.Context, req dto.CreateSupplyRequest) (*dto.SupplyResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupplyResponse, error)
	List(ctx context.Context, filter dto.SupplyFilter) (*dto.SupplyListResponse, error)
	ListGrouped(ctx context.Context, filter dto.SupplyFilter) (*dto.SupplyGroupedResponse, error)
	Replenish(ctx context.Context, id uuid.UUID, req dto.ReplenishStockRequest) (*dto.SupplyResponse, error)
	Deduct(ctx context.Context, id uuid.UUID, req dto.DeductStockRequest) (*dto.SupplyResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateSupplyRequest) (*dto.SupplyResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Movements(ctx context.Context, id uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type stockService struct {
	supplies  repository.SupplyRepository
	movements repository.StockMovementRepository
	alerts    AlertQueue
}

func NewStockService(supplies repository.SupplyRepository, movements repository.StockMovementRepository, alerts AlertQueue) StockService {
	return &stockService{supplies: supplies, movements: movements, alerts: alerts}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Register ─────────────────────────────────────────────────────────────────
// Creates the supply and its opening-balance ENTRY movement atomically.

func (s *stockService) Register(ctx context.Context, req dto.CreateSupplyRequest) (*dto.SupplyResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("nome do insumo é obrigatório")
	}
	if req.QuantityOnHand.IsNegative() || req.AvgUnitCost.IsNegative() {
		return nil, apperr.Validation("quantidade e custo iniciais não podem ser negativos")
	}

	unit := req.UnitOfMeasure
	if unit == "" {
		unit = "un"
	}
	supply := &model.Supply{
		Name:            strings.TrimSpace(req.Name),
		Brand:           req.Brand,
		Category:        req.Category,
		UnitOfMeasure:   unit,
		QuantityOnHand:  req.QuantityOnHand,
		MinimumStock:    req.MinimumStock,
		AvgUnitCost:     req.AvgUnitCost,
		Fractionable:    req.Fractionable,
		YieldTotal:      req.YieldTotal,
		ConsumptionUnit: req.ConsumptionUnit,
	}

	openingValue := req.QuantityOnHand.Mul(req.AvgUnitCost)
	err := runTx(ctx, s.supplies.DB(), func(tx *gorm.DB) error {
		if err := s.supplies.CreateTx(tx, supply); err != nil {
			return err
		}
		return s.movements.CreateTx(tx, &model.StockMovement{
			SupplyID:       supply.ID,
			Kind:           model.MovementEntry,
			Quantity:       req.QuantityOnHand,
			TotalValue:     &openingValue,
			Note:           req.Note,
			QuantityBefore: decimal.Zero,
			QuantityAfter:  req.QuantityOnHand,
		})
	})
	if err != nil {
		return nil, apperr.Internal("não foi possível registrar o insumo", err)
	}

	metrics.StockMovements.WithLabelValues(model.MovementEntry, "").Inc()
	zerolog.Ctx(ctx).Info().
		Str("supply_id", supply.ID.String()).
		Str("name", supply.Name).
		Msg("stock: supply registered")
	return toSupplyResponse(supply), nil
}

// ── Replenish ────────────────────────────────────────────────────────────────
// The only place the weighted-average unit cost changes:
//   newAvg = (oldQty*oldAvg + totalCost) / (oldQty + added)   when the
//   resulting quantity is positive, else zero.

func (s *stockService) Replenish(ctx context.Context, id uuid.UUID, req dto.ReplenishStockRequest) (*dto.SupplyResponse, error) {
	if req.Quantity.Sign() <= 0 {
		return nil, apperr.Validation("quantidade de entrada deve ser maior que zero")
	}
	if req.TotalCost.IsNegative() {
		return nil, apperr.Validation("custo total não pode ser negativo")
	}

	supply, err := s.findSupply(ctx, id)
	if err != nil {
		return nil, err
	}

	before := supply.QuantityOnHand
	newQty := before.Add(req.Quantity)
	newAvg := decimal.Zero
	if newQty.Sign() > 0 {
		newAvg = before.Mul(supply.AvgUnitCost).Add(req.TotalCost).DivRound(newQty, 4)
	}

	supply.QuantityOnHand = newQty
	supply.AvgUnitCost = newAvg
	totalCost := req.TotalCost

	err = runTx(ctx, s.supplies.DB(), func(tx *gorm.DB) error {
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			SupplyID:       supply.ID,
			Kind:           model.MovementEntry,
			Quantity:       req.Quantity,
			TotalValue:     &totalCost,
			Note:           req.Note,
			QuantityBefore: before,
			QuantityAfter:  newQty,
		}); err != nil {
			return err
		}
		return s.supplies.SaveTx(tx, supply)
	})
	if err != nil {
		return nil, apperr.Internal("não foi possível registrar a entrada de estoque", err)
	}

	metrics.StockMovements.WithLabelValues(model.MovementEntry, "").Inc()
	zerolog.Ctx(ctx).Info().
		Str("supply_id", supply.ID.String()).
		Str("quantity", req.Quantity.String()).
		Str("new_avg_cost", newAvg.String()).
		Msg("stock: replenished")
	return toSupplyResponse(supply), nil
}

// ── Deduct ───────────────────────────────────────────────────────────────────
// Rejects before any mutation when the requested quantity exceeds the
// on-hand amount, so quantity on hand can never go negative.

func (s *stockService) Deduct(ctx context.Context, id uuid.UUID, req dto.DeductStockRequest) (*dto.SupplyResponse, error) {
	if req.Quantity.Sign() <= 0 {
		return nil, apperr.Validation("quantidade de saída deve ser maior que zero")
	}

	supply, err := s.findSupply(ctx, id)
	if err != nil {
		return nil, err
	}

	before := supply.QuantityOnHand
	if req.Quantity.GreaterThan(before) {
		return nil, apperr.InsufficientStock(
			"estoque insuficiente: disponível %s, solicitado %s",
			before.String(), req.Quantity.String(),
		)
	}

	newQty := before.Sub(req.Quantity)
	supply.QuantityOnHand = newQty
	reason := req.Reason

	err = runTx(ctx, s.supplies.DB(), func(tx *gorm.DB) error {
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			SupplyID:       supply.ID,
			Kind:           model.MovementExit,
			Quantity:       req.Quantity,
			Reason:         &reason,
			Note:           req.Note,
			QuantityBefore: before,
			QuantityAfter:  newQty,
		}); err != nil {
			return err
		}
		return s.supplies.SaveTx(tx, supply)
	})
	if err != nil {
		return nil, apperr.Internal("não foi possível registrar a saída de estoque", err)
	}

	metrics.StockMovements.WithLabelValues(model.MovementExit, reason).Inc()
	zerolog.Ctx(ctx).Info().
		Str("supply_id", supply.ID.String()).
		Str("quantity", req.Quantity.String()).
		Str("reason", reason).
		Msg("stock: deducted")

	// Best-effort restock reminder; an enqueue failure never fails the call.
	if supply.LowStock() && s.alerts != nil {
		payload := worker.LowStockPayload{
			SupplyID:       supply.ID.String(),
			Name:           supply.Name,
			QuantityOnHand: supply.QuantityOnHand.String(),
			MinimumStock:   supply.MinimumStock.String(),
			Unit:           supply.UnitOfMeasure,
		}
		if err := s.alerts.EnqueueLowStockAlert(ctx, payload); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("supply_id", supply.ID.String()).
				Msg("stock: failed to enqueue low-stock alert")
		}
	}

	return toSupplyResponse(supply), nil
}

// ── Update ───────────────────────────────────────────────────────────────────
// Descriptive fields only: quantity, cost, and history are never touched.

func (s *stockService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateSupplyRequest) (*dto.SupplyResponse, error) {
	supply, err := s.findSupply(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validation("nome do insumo é obrigatório")
		}
		supply.Name = strings.TrimSpace(*req.Name)
	}
	if req.Brand != nil {
		supply.Brand = req.Brand
	}
	if req.Category != nil {
		supply.Category = *req.Category
	}
	if req.UnitOfMeasure != nil {
		supply.UnitOfMeasure = *req.UnitOfMeasure
	}
	if req.MinimumStock != nil {
		supply.MinimumStock = *req.MinimumStock
	}
	if req.Fractionable != nil {
		supply.Fractionable = *req.Fractionable
	}
	if req.YieldTotal != nil {
		supply.YieldTotal = req.YieldTotal
	}
	if req.ConsumptionUnit != nil {
		supply.ConsumptionUnit = req.ConsumptionUnit
	}

	if err := s.supplies.Save(ctx, supply); err != nil {
		return nil, apperr.Internal("não foi possível atualizar o insumo", err)
	}

	zerolog.Ctx(ctx).Info().Str("supply_id", supply.ID.String()).Msg("stock: supply updated")
	return toSupplyResponse(supply), nil
}

// ── Delete ───────────────────────────────────────────────────────────────────
// Hard delete of the supply and its full movement history. No undo.

func (s *stockService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findSupply(ctx, id); err != nil {
		return err
	}

	err := runTx(ctx, s.supplies.DB(), func(tx *gorm.DB) error {
		if err := s.movements.DeleteBySupplyTx(tx, id); err != nil {
			return err
		}
		return s.supplies.DeleteTx(tx, id)
	})
	if err != nil {
		return apperr.Internal("não foi possível excluir o insumo", err)
	}

	zerolog.Ctx(ctx).Info().Str("supply_id", id.String()).Msg("stock: supply deleted")
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *stockService) Get(ctx context.Context, id uuid.UUID) (*dto.SupplyResponse, error) {
	supply, err := s.findSupply(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSupplyResponse(supply), nil
}

func (s *stockService) List(ctx context.Context, filter dto.SupplyFilter) (*dto.SupplyListResponse, error) {
	supplies, err := s.supplies.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("não foi possível listar os insumos", err)
	}

	resp := &dto.SupplyListResponse{Supplies: make([]dto.SupplyResponse, 0, len(supplies))}
	for i := range supplies {
		resp.Supplies = append(resp.Supplies, *toSupplyResponse(&supplies[i]))
	}
	resp.Total = len(resp.Supplies)
	return resp, nil
}

func (s *stockService) ListGrouped(ctx context.Context, filter dto.SupplyFilter) (*dto.SupplyGroupedResponse, error) {
	supplies, err := s.supplies.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("não foi possível listar os insumos", err)
	}

	resp := &dto.SupplyGroupedResponse{Groups: make(map[string][]dto.SupplyResponse)}
	for i := range supplies {
		r := toSupplyResponse(&supplies[i])
		resp.Groups[r.Category] = append(resp.Groups[r.Category], *r)
		resp.Total++
	}
	return resp, nil
}

func (s *stockService) Movements(ctx context.Context, id uuid.UUID, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if _, err := s.findSupply(ctx, id); err != nil {
		return nil, err
	}

	movements, total, err := s.movements.ListBySupply(ctx, id, filter)
	if err != nil {
		return nil, apperr.Internal("não foi possível listar os movimentos", err)
	}

	resp := &dto.MovementListResponse{
		Movements: make([]dto.MovementResponse, 0, len(movements)),
		Total:     total,
		Page:      filter.Page,
		Limit:     filter.Limit,
	}
	for i := range movements {
		m := &movements[i]
		resp.Movements = append(resp.Movements, dto.MovementResponse{
			ID:             m.ID.String(),
			Kind:           m.Kind,
			Quantity:       m.Quantity,
			TotalValue:     m.TotalValue,
			Reason:         m.Reason,
			Note:           m.Note,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			CreatedAt:      m.CreatedAt,
		})
	}
	return resp, nil
}

// ─────────────────────────────────────────────────────────────────────────────

func (s *stockService) findSupply(ctx context.Context, id uuid.UUID) (*model.Supply, error) {
	supply, err := s.supplies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("insumo não encontrado")
		}
		return nil, apperr.Internal("não foi possível consultar o insumo", err)
	}
	return supply, nil
}

func toSupplyResponse(s *model.Supply) *dto.SupplyResponse {
	return &dto.SupplyResponse{
		ID:                     s.ID.String(),
		Name:                   s.Name,
		Brand:                  s.Brand,
		Category:               s.Category,
		UnitOfMeasure:          s.UnitOfMeasure,
		QuantityOnHand:         s.QuantityOnHand,
		MinimumStock:           s.MinimumStock,
		AvgUnitCost:            s.AvgUnitCost,
		LowStock:               s.LowStock(),
		Fractionable:           s.Fractionable,
		YieldTotal:             s.YieldTotal,
		ConsumptionUnit:        s.ConsumptionUnit,
		CostPerConsumptionUnit: s.CostPerConsumptionUnit(),
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
	}
}
