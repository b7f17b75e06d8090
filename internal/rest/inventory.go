package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"justEatMore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type (
	InventoryHandler struct {
		validate         *validator.Validate
		inventoryService InventoryService
		timeout          time.Duration
	}

	InventoryService interface {
		ListItems(ctx context.Context, category domain.Category) ([]domain.Item, error)
		ListAvailableItems(ctx context.Context, category domain.Category, includeEmpty bool) ([]domain.Item, error)
		GetItem(ctx context.Context, id uint64) (*domain.Item, error)
		CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
		UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
		DeleteItem(ctx context.Context, id uint64) error
		AdjustStock(ctx context.Context, id uint64, delta int) (*domain.Item, error)
		LowStockItems(ctx context.Context) ([]domain.Item, error)
	}

	ItemInput struct {
		Name        string          `json:"name" validate:"required"`
		Category    domain.Category `json:"category" validate:"required,oneof=snack juice"`
		CostPerBag  decimal.Decimal `json:"cost_per_bag"`
		UnitsPerBag int             `json:"units_per_bag" validate:"required,gt=0"`
		Stock       int             `json:"stock" validate:"gte=0"`
		IsSpicy     bool            `json:"is_spicy"`
	}

	AdjustStockInput struct {
		Delta int `json:"delta" validate:"required"`
	}
)

func NewInventoryHandler(inventoryService InventoryService) *InventoryHandler {
	return &InventoryHandler{
		validate:         validator.New(),
		inventoryService: inventoryService,
		timeout:          10 * time.Second,
	}
}

func (h *InventoryHandler) ListItems(c echo.Context) error {
	category := domain.Category(c.QueryParam("category"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var (
		items []domain.Item
		err   error
	)
	if available, _ := strconv.ParseBool(c.QueryParam("available")); available {
		items, err = h.inventoryService.ListAvailableItems(ctx, category, false)
	} else {
		items, err = h.inventoryService.ListItems(ctx, category)
	}
	if err != nil {
		return writeError(c, "Failed to list items", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

func (h *InventoryHandler) GetItem(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	item, err := h.inventoryService.GetItem(ctx, id)
	if err != nil {
		return writeError(c, "Failed to get item", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(item))
}

func (h *InventoryHandler) CreateItem(c echo.Context) error {
	var request ItemInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate item", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	item, err := h.inventoryService.CreateItem(ctx, request.toItem(0))
	if err != nil {
		return writeError(c, "Failed to create item", err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(item))
}

func (h *InventoryHandler) UpdateItem(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item ID"})
	}

	var request ItemInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate item", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	item, err := h.inventoryService.UpdateItem(ctx, request.toItem(id))
	if err != nil {
		return writeError(c, "Failed to update item", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(item))
}

func (h *InventoryHandler) DeleteItem(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.inventoryService.DeleteItem(ctx, id); err != nil {
		return writeError(c, "Failed to delete item", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("item deleted"))
}

func (h *InventoryHandler) AdjustStock(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item ID"})
	}

	var request AdjustStockInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate stock adjustment", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	item, err := h.inventoryService.AdjustStock(ctx, id, request.Delta)
	if err != nil {
		return writeError(c, "Failed to adjust stock", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(item))
}

func (h *InventoryHandler) LowStock(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	items, err := h.inventoryService.LowStockItems(ctx)
	if err != nil {
		return writeError(c, "Failed to list low stock items", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

func (in ItemInput) toItem(id uint64) *domain.Item {
	return &domain.Item{
		ID:          id,
		Name:        in.Name,
		Category:    in.Category,
		CostPerBag:  in.CostPerBag,
		UnitsPerBag: in.UnitsPerBag,
		Stock:       in.Stock,
		IsSpicy:     in.IsSpicy,
	}
}
