package service

import (
	"context"
	"testing"
	"time"

	"printlog/internal/apperr"
	"printlog/internal/dto"
	"printlog/internal/model"
	"printlog/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory OrderRepository stub ───────────────────────────────────────────

type stubOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	saveErr   error
	saveCalls int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func copyOrder(o *model.Order) *model.Order {
	cp := *o
	cp.SupplyLines = append([]model.OrderSupplyLine(nil), o.SupplyLines...)
	return &cp
}

func (r *stubOrderRepo) Create(_ context.Context, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyOrder(o), nil
}

func (r *stubOrderRepo) List(_ context.Context, filter dto.OrderFilter, archived bool) ([]model.Order, int64, error) {
	var result []model.Order
	for _, o := range r.orders {
		if archived != (o.Status == model.StatusArchived) {
			continue
		}
		if !archived && filter.Status != "" && o.Status != filter.Status {
			continue
		}
		result = append(result, *copyOrder(o))
	}
	return result, int64(len(result)), nil
}

func (r *stubOrderRepo) SaveTx(_ *gorm.DB, o *model.Order) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *stubOrderRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.orders, id)
	return nil
}

func (r *stubOrderRepo) ArchiveCompletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var archived int64
	for _, o := range r.orders {
		if o.Status == model.StatusDone && o.CompletedAt != nil && o.CompletedAt.Before(cutoff) {
			o.Status = model.StatusArchived
			archived++
		}
	}
	return archived, nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

// ── Usage queue recorder ─────────────────────────────────────────────────────

type stubUsageQueue struct {
	payloads []worker.UsagePayload
	err      error
}

func (q *stubUsageQueue) EnqueueUsage(_ context.Context, p worker.UsagePayload) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, p)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────

func newOrderFixture() (*orderService, *stubOrderRepo, *stubSupplyRepo, *stubUsageQueue) {
	orders := newStubOrderRepo()
	supplies := newStubSupplyRepo()
	usage := &stubUsageQueue{}
	svc := NewOrderService(orders, supplies, usage, 7).(*orderService)
	return svc, orders, supplies, usage
}

func validCreateReq() dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		ClientID:    uuid.NewString(),
		Description: "Suporte de parede para headset",
		PriceCents:  4500,
	}
}

func createOrder(t *testing.T, svc OrderService, req dto.CreateOrderRequest) *dto.OrderResponse {
	t.Helper()
	resp, err := svc.Create(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	return resp
}

func TestCreateOrderStartsInToDo(t *testing.T) {
	svc, _, _, _ := newOrderFixture()

	resp := createOrder(t, svc, validCreateReq())
	assert.Equal(t, model.StatusToDo, resp.Status)
	assert.Nil(t, resp.CompletedAt)
	assert.Equal(t, int64(4500), resp.PriceCents)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _, _ := newOrderFixture()
	ctx := context.Background()
	owner := uuid.New()

	req := validCreateReq()
	req.ClientID = "not-a-uuid"
	_, err := svc.Create(ctx, owner, req)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req = validCreateReq()
	req.Description = "  "
	_, err = svc.Create(ctx, owner, req)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req = validCreateReq()
	req.PriceCents = 0
	_, err = svc.Create(ctx, owner, req)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateOrderSnapshotsSupplyLines(t *testing.T) {
	svc, _, supplies, _ := newOrderFixture()

	supply := &model.Supply{
		Name:        "Fita dupla face",
		Category:    model.CategoryAdhesive,
		AvgUnitCost: dec("12.5"),
	}
	require.NoError(t, supplies.CreateTx(nil, supply))

	req := validCreateReq()
	req.SupplyLines = []dto.SupplyLineRequest{
		{SupplyID: supply.ID.String(), Quantity: dec("2")},
	}
	resp := createOrder(t, svc, req)

	require.Len(t, resp.SupplyLines, 1)
	line := resp.SupplyLines[0]
	assert.Equal(t, "Fita dupla face", line.SupplyName)
	assert.True(t, line.UnitCost.Equal(dec("12.5")))

	// The snapshot must survive later cost changes on the supply.
	stored := supplies.supplies[supply.ID]
	stored.AvgUnitCost = dec("99")
	got, err := svc.Get(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, got.SupplyLines[0].UnitCost.Equal(dec("12.5")))
}

func TestCreateOrderUnknownSupplyLine(t *testing.T) {
	svc, _, _, _ := newOrderFixture()

	req := validCreateReq()
	req.SupplyLines = []dto.SupplyLineRequest{
		{SupplyID: uuid.NewString(), Quantity: dec("1")},
	}
	_, err := svc.Create(context.Background(), uuid.New(), req)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestMoveSetsAndClearsCompletedAt(t *testing.T) {
	svc, _, _, _ := newOrderFixture()
	done := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return done }

	resp := createOrder(t, svc, validCreateReq())
	id := uuid.MustParse(resp.ID)
	ctx := context.Background()

	moved, err := svc.Move(ctx, id, model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, moved.Status)
	require.NotNil(t, moved.CompletedAt)
	assert.True(t, moved.CompletedAt.Equal(done))

	// moving away from DONE clears the timestamp
	moved, err = svc.Move(ctx, id, model.StatusInProduction)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProduction, moved.Status)
	assert.Nil(t, moved.CompletedAt)
}

func TestMoveSameStatusIsNoOp(t *testing.T) {
	svc, orders, _, _ := newOrderFixture()

	resp := createOrder(t, svc, validCreateReq())
	before := orders.saveCalls

	moved, err := svc.Move(context.Background(), uuid.MustParse(resp.ID), model.StatusToDo)
	require.NoError(t, err)
	assert.Equal(t, model.StatusToDo, moved.Status)
	assert.Equal(t, before, orders.saveCalls)
}

func TestMoveRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newOrderFixture()

	resp := createOrder(t, svc, validCreateReq())
	_, err := svc.Move(context.Background(), uuid.MustParse(resp.ID), "SHIPPED")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMoveIntoDoneEnqueuesUsage(t *testing.T) {
	svc, _, _, usage := newOrderFixture()

	machineID := uuid.NewString()
	minutes := 340
	req := validCreateReq()
	req.MachineID = &machineID
	req.PrintMinutes = &minutes
	resp := createOrder(t, svc, req)

	_, err := svc.Move(context.Background(), uuid.MustParse(resp.ID), model.StatusDone)
	require.NoError(t, err)

	require.Len(t, usage.payloads, 1)
	assert.Equal(t, machineID, usage.payloads[0].MachineID)
	assert.Equal(t, 340, usage.payloads[0].Minutes)
	assert.Equal(t, resp.ID, usage.payloads[0].OrderID)
}

func TestMoveIntoDoneWithoutMachineSkipsUsage(t *testing.T) {
	svc, _, _, usage := newOrderFixture()

	resp := createOrder(t, svc, validCreateReq())
	_, err := svc.Move(context.Background(), uuid.MustParse(resp.ID), model.StatusDone)
	require.NoError(t, err)
	assert.Empty(t, usage.payloads)
}

func TestMoveUsageEnqueueFailureDoesNotRevert(t *testing.T) {
	svc, orders, _, usage := newOrderFixture()
	usage.err = assert.AnError

	machineID := uuid.NewString()
	minutes := 90
	req := validCreateReq()
	req.MachineID = &machineID
	req.PrintMinutes = &minutes
	resp := createOrder(t, svc, req)
	id := uuid.MustParse(resp.ID)

	moved, err := svc.Move(context.Background(), id, model.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, moved.Status)
	assert.Equal(t, model.StatusDone, orders.orders[id].Status)
}

func TestMovePersistenceFailureKeepsPriorStatus(t *testing.T) {
	svc, orders, _, usage := newOrderFixture()

	resp := createOrder(t, svc, validCreateReq())
	id := uuid.MustParse(resp.ID)
	orders.saveErr = assert.AnError

	_, err := svc.Move(context.Background(), id, model.StatusFinishing)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, model.StatusToDo, orders.orders[id].Status)
	assert.Nil(t, orders.orders[id].CompletedAt)
	assert.Empty(t, usage.payloads)
}

func TestUpdateStatusAppliesCompletionRule(t *testing.T) {
	svc, _, _, _ := newOrderFixture()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	resp := createOrder(t, svc, validCreateReq())
	id := uuid.MustParse(resp.ID)
	ctx := context.Background()

	status := model.StatusDone
	updated, err := svc.Update(ctx, id, dto.UpdateOrderRequest{Status: &status})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	status = model.StatusToDo
	notes := "cliente pediu ajuste na tampa"
	updated, err = svc.Update(ctx, id, dto.UpdateOrderRequest{Status: &status, Notes: &notes})
	require.NoError(t, err)
	assert.Nil(t, updated.CompletedAt)
	assert.Equal(t, notes, updated.Notes)
}

func TestArchivalSweepOnList(t *testing.T) {
	svc, orders, _, _ := newOrderFixture()
	now := time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	// completed 8 days ago — past the 7 day window
	stale := createOrder(t, svc, validCreateReq())
	staleID := uuid.MustParse(stale.ID)
	completedOld := now.Add(-8 * 24 * time.Hour)
	orders.orders[staleID].Status = model.StatusDone
	orders.orders[staleID].CompletedAt = &completedOld

	// completed 2 days ago — stays visible
	fresh := createOrder(t, svc, validCreateReq())
	freshID := uuid.MustParse(fresh.ID)
	completedRecent := now.Add(-2 * 24 * time.Hour)
	orders.orders[freshID].Status = model.StatusDone
	orders.orders[freshID].CompletedAt = &completedRecent

	list, err := svc.List(ctx, dto.OrderFilter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(list.Orders))
	for _, o := range list.Orders {
		ids = append(ids, o.ID)
	}
	assert.NotContains(t, ids, stale.ID)
	assert.Contains(t, ids, fresh.ID)
	assert.Equal(t, model.StatusArchived, orders.orders[staleID].Status)

	archived, err := svc.ListArchived(ctx, dto.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, archived.Orders, 1)
	assert.Equal(t, stale.ID, archived.Orders[0].ID)
	assert.Equal(t, model.StatusArchived, archived.Orders[0].Status)
}

func TestDeleteOrder(t *testing.T) {
	svc, orders, _, _ := newOrderFixture()

	resp := createOrder(t, svc, validCreateReq())
	id := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.NotContains(t, orders.orders, id)

	err := svc.Delete(context.Background(), id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	svc, _, _, _ := newOrderFixture()

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	material := "PETG"
	weight := dec("128.4")
	req := validCreateReq()
	req.DueDate = &due
	req.Material = &material
	req.WeightGrams = &weight
	req.Notes = "acabamento fosco"

	created := createOrder(t, svc, req)
	got, err := svc.Get(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)

	assert.Equal(t, created.ClientID, got.ClientID)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.PriceCents, got.PriceCents)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.Equal(t, "acabamento fosco", got.Notes)
	require.NotNil(t, got.WeightGrams)
	assert.True(t, got.WeightGrams.Equal(weight))
}
