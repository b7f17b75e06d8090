//go:build !integration

package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"justEatMore/business/allocation"
	"justEatMore/business/bundle"
	"justEatMore/business/catalog"
	"justEatMore/business/inventory"
	"justEatMore/business/orders"
	"justEatMore/business/payments"
	"justEatMore/domain"
	"justEatMore/internal/repository/memory"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const callbackToken = "cb-token"

type server struct {
	e        *echo.Echo
	items    *memory.ItemRepository
	payments *memory.PaymentsRepository
	orders   *orders.OrdersService
}

func newServer(t *testing.T) *server {
	t.Helper()

	d := decimal.RequireFromString
	itemRepo := memory.NewItemRepository(
		domain.Item{Name: "Chips", Category: domain.CategorySnack, UnitCost: d("30"), Stock: 50},
		domain.Item{Name: "Wafers", Category: domain.CategorySnack, UnitCost: d("45"), Stock: 50},
		domain.Item{Name: "Chili Crackers", Category: domain.CategorySnack, UnitCost: d("20"), Stock: 3},
	)
	catalogService := catalog.NewCatalogService(memory.NewBundleTypeRepository(domain.BundleType{
		Name:           "Snack Box",
		RequiredSnacks: 10,
		SellingPrice:   d("1000"),
		IsActive:       true,
	}))
	inventoryService := inventory.NewInventoryService(itemRepo)
	bundleService := bundle.NewBundleService(inventoryService, allocation.NewSolver(allocation.Config{}), d("0.38"))
	ordersService := orders.NewOrdersService(memory.NewOrdersRepository(), itemRepo, bundleService, catalogService, nil, nil, orders.Config{})
	paymentsRepo := memory.NewPaymentsRepository()

	ordersHandler := NewOrdersHandler(ordersService)
	bundleHandler := NewBundleHandler(bundleService, catalogService)
	inventoryHandler := NewInventoryHandler(inventoryService)
	webhook := NewWebhookController(payments.NewPaymentsService(paymentsRepo, ordersService, callbackToken))
	dashboard := NewDashboardHandler(ordersService, inventoryService)

	e := echo.New()
	e.POST("/bundles/quote", bundleHandler.Quote)
	e.POST("/orders", ordersHandler.CreateOrder)
	e.GET("/orders/:id", ordersHandler.GetOrder)
	e.GET("/orders", ordersHandler.ListOrders)
	e.POST("/orders/:id/approve", ordersHandler.Approve)
	e.POST("/orders/:id/cancel", ordersHandler.Cancel)
	e.POST("/items/:id/adjust", inventoryHandler.AdjustStock)
	e.POST("/webhook/payments", webhook.HandleWebhook)
	e.GET("/admin/dashboard", dashboard.Dashboard)

	return &server{e: e, items: itemRepo, payments: paymentsRepo, orders: ordersService}
}

func (s *server) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) stock(t *testing.T) int {
	t.Helper()
	total := 0
	for _, id := range []uint64{1, 2, 3} {
		it, err := s.items.FindByID(context.Background(), id)
		require.NoError(t, err)
		total += it.Stock
	}
	return total
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ResponseError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestQuote(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/bundles/quote", `{"bundle_type_id": 1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), domain.PassMarginEnforced)

	rec = s.do(http.MethodPost, "/bundles/quote", `{"snack_count": 5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/bundles/quote", `{"snack_count": 200}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPost, "/bundles/quote", `{"bundle_type_id": 99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 103, s.stock(t), "quoting never touches stock")
}

func TestCreateOrderAndTransitions(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/orders", `{"snack_count": 10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "customer name is required")

	rec = s.do(http.MethodPost, "/orders", `{"customer_name": "Rina", "customer_email": "rina@example.com", "snack_count": 10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), string(domain.StatusPendingApproval))

	rec = s.do(http.MethodPost, "/orders/1/approve", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), string(domain.StatusApproved))

	rec = s.do(http.MethodPost, "/orders/1/approve", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "cannot move order")

	rec = s.do(http.MethodPost, "/orders/1/cancel", `{"reason": "customer changed their mind"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer changed their mind")

	rec = s.do(http.MethodGet, "/orders/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/orders/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/orders?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustStockConflict(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/items/3/adjust", `{"delta": -4}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/items/3/adjust", `{"delta": 7}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 110, s.stock(t))
}

func TestPaymentWebhookVerifiesOrder(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	rec := s.do(http.MethodPost, "/orders", `{"customer_name": "Rina", "bundle_type_id": 1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order, err := s.orders.GetOrder(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, order.Status)

	externalID := payments.ExternalID(order.Reference)
	require.NoError(t, s.payments.Create(ctx, &domain.Payment{
		OrderID:    order.ID,
		ExternalID: externalID,
		Status:     domain.PaymentPending,
		Amount:     order.SellingPrice,
	}))

	body := `{"external_id": "` + externalID + `", "status": "PAID"}`

	rec = s.do(http.MethodPost, "/webhook/payments", body, CallbackTokenHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/webhook/payments", body, CallbackTokenHeader, callbackToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	order, err = s.orders.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentVerified, order.Status)
	assert.True(t, order.StockCommitted)
	assert.Equal(t, 93, s.stock(t))

	rec = s.do(http.MethodPost, "/webhook/payments", body, CallbackTokenHeader, callbackToken)
	assert.Equal(t, http.StatusOK, rec.Code, "replayed webhook is accepted")
	assert.Equal(t, 93, s.stock(t))
}

func TestDashboard(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/admin/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chili Crackers")
	assert.NotContains(t, rec.Body.String(), "Wafers")
}
