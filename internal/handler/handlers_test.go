package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"printlog/internal/apperr"
	"printlog/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// fakeStockService lets each test plug in just the method it exercises.
type fakeStockService struct {
	deduct func(ctx context.Context, id uuid.UUID, req dto.DeductStockRequest) (*dto.SupplyResponse, error)
}

func (f *fakeStockService) Register(context.Context, dto.CreateSupplyRequest) (*dto.SupplyResponse, error) {
	return nil, nil
}
func (f *fakeStockService) Get(context.Context, uuid.UUID) (*dto.SupplyResponse, error) {
	return nil, nil
}
func (f *fakeStockService) List(context.Context, dto.SupplyFilter) (*dto.SupplyListResponse, error) {
	return nil, nil
}
func (f *fakeStockService) ListGrouped(context.Context, dto.SupplyFilter) (*dto.SupplyGroupedResponse, error) {
	return nil, nil
}
func (f *fakeStockService) Replenish(context.Context, uuid.UUID, dto.ReplenishStockRequest) (*dto.SupplyResponse, error) {
	return nil, nil
}
func (f *fakeStockService) Deduct(ctx context.Context, id uuid.UUID, req dto.DeductStockRequest) (*dto.SupplyResponse, error) {
	return f.deduct(ctx, id, req)
}
func (f *fakeStockService) Update(context.Context, uuid.UUID, dto.UpdateSupplyRequest) (*dto.SupplyResponse, error) {
	return nil, nil
}
func (f *fakeStockService) Delete(context.Context, uuid.UUID) error { return nil }
func (f *fakeStockService) Movements(context.Context, uuid.UUID, dto.MovementFilter) (*dto.MovementListResponse, error) {
	return nil, nil
}

type fakeOrderService struct {
	move func(ctx context.Context, id uuid.UUID, newStatus string) (*dto.OrderResponse, error)
}

func (f *fakeOrderService) Create(context.Context, uuid.UUID, dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	return nil, nil
}
func (f *fakeOrderService) Get(context.Context, uuid.UUID) (*dto.OrderResponse, error) {
	return nil, nil
}
func (f *fakeOrderService) Update(context.Context, uuid.UUID, dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	return nil, nil
}
func (f *fakeOrderService) Move(ctx context.Context, id uuid.UUID, newStatus string) (*dto.OrderResponse, error) {
	return f.move(ctx, id, newStatus)
}
func (f *fakeOrderService) Delete(context.Context, uuid.UUID) error { return nil }
func (f *fakeOrderService) List(context.Context, dto.OrderFilter) (*dto.OrderListResponse, error) {
	return nil, nil
}
func (f *fakeOrderService) ListArchived(context.Context, dto.OrderFilter) (*dto.OrderListResponse, error) {
	return nil, nil
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDeductMapsInsufficientStockToConflict(t *testing.T) {
	svc := &fakeStockService{
		deduct: func(context.Context, uuid.UUID, dto.DeductStockRequest) (*dto.SupplyResponse, error) {
			return nil, apperr.InsufficientStock("estoque insuficiente: disponível 3, solicitado 5")
		},
	}
	r := gin.New()
	h := NewSuppliesHandler(svc)
	r.POST("/v1/supplies/:id/deduct", h.Deduct)

	rec := perform(r, http.MethodPost, "/v1/supplies/"+uuid.NewString()+"/deduct",
		`{"quantity":"5","reason":"USE"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "estoque insuficiente")
}

func TestDeductRejectsInvalidBodyWithFieldMap(t *testing.T) {
	svc := &fakeStockService{
		deduct: func(context.Context, uuid.UUID, dto.DeductStockRequest) (*dto.SupplyResponse, error) {
			t.Fatal("service must not be reached on validation failure")
			return nil, nil
		},
	}
	r := gin.New()
	h := NewSuppliesHandler(svc)
	r.POST("/v1/supplies/:id/deduct", h.Deduct)

	// reason missing, quantity not positive
	rec := perform(r, http.MethodPost, "/v1/supplies/"+uuid.NewString()+"/deduct",
		`{"quantity":"0"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Erro de validação", body.Detail)
	assert.NotEmpty(t, body.Fields)
}

func TestDeductRejectsMalformedID(t *testing.T) {
	r := gin.New()
	h := NewSuppliesHandler(&fakeStockService{})
	r.POST("/v1/supplies/:id/deduct", h.Deduct)

	rec := perform(r, http.MethodPost, "/v1/supplies/abc/deduct",
		`{"quantity":"1","reason":"USE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveMapsNotFound(t *testing.T) {
	svc := &fakeOrderService{
		move: func(context.Context, uuid.UUID, string) (*dto.OrderResponse, error) {
			return nil, apperr.NotFound("pedido não encontrado")
		},
	}
	r := gin.New()
	h := NewOrdersHandler(svc)
	r.PATCH("/v1/orders/:id/status", h.Move)

	rec := perform(r, http.MethodPatch, "/v1/orders/"+uuid.NewString()+"/status",
		`{"status":"DONE"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pedido não encontrado", body["detail"])
}

func TestMoveRejectsUnknownStatusBeforeService(t *testing.T) {
	svc := &fakeOrderService{
		move: func(context.Context, uuid.UUID, string) (*dto.OrderResponse, error) {
			t.Fatal("service must not be reached for an unknown status")
			return nil, nil
		},
	}
	r := gin.New()
	h := NewOrdersHandler(svc)
	r.PATCH("/v1/orders/:id/status", h.Move)

	rec := perform(r, http.MethodPatch, "/v1/orders/"+uuid.NewString()+"/status",
		`{"status":"SHIPPED"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInternalErrorHidesCause(t *testing.T) {
	svc := &fakeOrderService{
		move: func(context.Context, uuid.UUID, string) (*dto.OrderResponse, error) {
			return nil, apperr.Internal("não foi possível mover o pedido", assert.AnError)
		},
	}
	r := gin.New()
	h := NewOrdersHandler(svc)
	r.PATCH("/v1/orders/:id/status", h.Move)

	rec := perform(r, http.MethodPatch, "/v1/orders/"+uuid.NewString()+"/status",
		`{"status":"DONE"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
