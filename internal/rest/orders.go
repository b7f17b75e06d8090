package rest

import (
	"context"
	"net/http"
	"time"

	"justEatMore/business/orders"
	"justEatMore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type (
	OrdersHandler struct {
		validate      *validator.Validate
		ordersService OrdersService
		timeout       time.Duration
	}

	OrdersService interface {
		CreateOrder(ctx context.Context, input orders.CreateOrderInput) (domain.Order, error)
		GetOrder(ctx context.Context, id uint64) (domain.Order, error)
		GetOrderByReference(ctx context.Context, reference string) (domain.Order, error)
		ListOrders(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
		Approve(ctx context.Context, id uint64) (domain.Order, error)
		MarkPaymentUploaded(ctx context.Context, id uint64) (domain.Order, error)
		VerifyPayment(ctx context.Context, id uint64) (domain.Order, error)
		StartProcessing(ctx context.Context, id uint64) (domain.Order, error)
		Complete(ctx context.Context, id uint64) (domain.Order, error)
		Cancel(ctx context.Context, id uint64, reason string) (domain.Order, error)
		CommitStock(ctx context.Context, id uint64) (domain.Order, error)
		RerunAllocation(ctx context.Context, id uint64, targetMargin decimal.Decimal) (domain.Order, error)
	}

	OrdersInput struct {
		CustomerName  string          `json:"customer_name" validate:"required"`
		CustomerPhone string          `json:"customer_phone"`
		CustomerEmail string          `json:"customer_email" validate:"omitempty,email"`
		PickupSpot    string          `json:"pickup_spot"`
		BundleTypeID  *uint64         `json:"bundle_type_id"`
		SnackCount    int             `json:"snack_count" validate:"gte=0"`
		JuiceCount    int             `json:"juice_count" validate:"gte=0"`
		Favorites     []uint64        `json:"favorites"`
		AllowList     []uint64        `json:"allow_list"`
		TargetMargin  decimal.Decimal `json:"target_margin"`
	}

	CancelInput struct {
		Reason string `json:"reason"`
	}

	RerunInput struct {
		TargetMargin decimal.Decimal `json:"target_margin"`
	}
)

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		validate:      validator.New(),
		ordersService: ordersService,
		timeout:       10 * time.Second,
	}
}

func (h *OrdersHandler) CreateOrder(c echo.Context) error {
	var request OrdersInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate order request", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	order, err := h.ordersService.CreateOrder(ctx, orders.CreateOrderInput{
		CustomerName:  request.CustomerName,
		CustomerPhone: request.CustomerPhone,
		CustomerEmail: request.CustomerEmail,
		PickupSpot:    request.PickupSpot,
		BundleTypeID:  request.BundleTypeID,
		SnackCount:    request.SnackCount,
		JuiceCount:    request.JuiceCount,
		Favorites:     request.Favorites,
		AllowList:     request.AllowList,
		TargetMargin:  request.TargetMargin,
	})
	if err != nil {
		return writeError(c, "Failed to create order", err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(order))
}

func (h *OrdersHandler) GetOrderByReference(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	order, err := h.ordersService.GetOrderByReference(ctx, c.Param("reference"))
	if err != nil {
		return writeError(c, "Failed to get order by reference", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) GetOrder(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	order, err := h.ordersService.GetOrder(ctx, id)
	if err != nil {
		return writeError(c, "Failed to get order", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) ListOrders(c echo.Context) error {
	status := domain.OrderStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid status filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.ordersService.ListOrders(ctx, status)
	if err != nil {
		return writeError(c, "Failed to list orders", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *OrdersHandler) Approve(c echo.Context) error {
	return h.transition(c, "Failed to approve order", h.ordersService.Approve)
}

func (h *OrdersHandler) MarkPaymentUploaded(c echo.Context) error {
	return h.transition(c, "Failed to mark payment uploaded", h.ordersService.MarkPaymentUploaded)
}

func (h *OrdersHandler) VerifyPayment(c echo.Context) error {
	return h.transition(c, "Failed to verify payment", h.ordersService.VerifyPayment)
}

func (h *OrdersHandler) StartProcessing(c echo.Context) error {
	return h.transition(c, "Failed to start processing", h.ordersService.StartProcessing)
}

func (h *OrdersHandler) Complete(c echo.Context) error {
	return h.transition(c, "Failed to complete order", h.ordersService.Complete)
}

func (h *OrdersHandler) CommitStock(c echo.Context) error {
	return h.transition(c, "Failed to commit stock", h.ordersService.CommitStock)
}

func (h *OrdersHandler) Cancel(c echo.Context) error {
	var request CancelInput
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	return h.transition(c, "Failed to cancel order", func(ctx context.Context, id uint64) (domain.Order, error) {
		return h.ordersService.Cancel(ctx, id, request.Reason)
	})
}

func (h *OrdersHandler) RerunAllocation(c echo.Context) error {
	var request RerunInput
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	return h.transition(c, "Failed to re-run allocation", func(ctx context.Context, id uint64) (domain.Order, error) {
		return h.ordersService.RerunAllocation(ctx, id, request.TargetMargin)
	})
}

func (h *OrdersHandler) transition(c echo.Context, msg string, fn func(context.Context, uint64) (domain.Order, error)) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	order, err := fn(ctx, id)
	if err != nil {
		return writeError(c, msg, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}
