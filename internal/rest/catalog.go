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
	CatalogHandler struct {
		validate       *validator.Validate
		catalogService CatalogService
		timeout        time.Duration
	}

	CatalogService interface {
		ListBundleTypes(ctx context.Context, activeOnly bool) ([]domain.BundleType, error)
		GetBundleType(ctx context.Context, id uint64) (domain.BundleType, error)
		CreateBundleType(ctx context.Context, bt *domain.BundleType) (*domain.BundleType, error)
		UpdateBundleType(ctx context.Context, bt *domain.BundleType) (*domain.BundleType, error)
		DeleteBundleType(ctx context.Context, id uint64) error
	}

	BundleTypeInput struct {
		Name           string          `json:"name" validate:"required"`
		Description    string          `json:"description"`
		RequiredSnacks int             `json:"required_snacks" validate:"gte=0"`
		RequiredJuices int             `json:"required_juices" validate:"gte=0"`
		SellingPrice   decimal.Decimal `json:"selling_price"`
		PackagingCost  decimal.Decimal `json:"packaging_cost"`
		IsActive       *bool           `json:"is_active"`
	}
)

func NewCatalogHandler(catalogService CatalogService) *CatalogHandler {
	return &CatalogHandler{
		validate:       validator.New(),
		catalogService: catalogService,
		timeout:        10 * time.Second,
	}
}

// ListBundleTypes returns active bundles unless ?all=true.
func (h *CatalogHandler) ListBundleTypes(c echo.Context) error {
	all, _ := strconv.ParseBool(c.QueryParam("all"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.catalogService.ListBundleTypes(ctx, !all)
	if err != nil {
		return writeError(c, "Failed to list bundle types", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *CatalogHandler) GetBundleType(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid bundle type ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	bt, err := h.catalogService.GetBundleType(ctx, id)
	if err != nil {
		return writeError(c, "Failed to get bundle type", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(bt))
}

func (h *CatalogHandler) CreateBundleType(c echo.Context) error {
	var request BundleTypeInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate bundle type", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	bt, err := h.catalogService.CreateBundleType(ctx, request.toBundleType(0))
	if err != nil {
		return writeError(c, "Failed to create bundle type", err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(bt))
}

func (h *CatalogHandler) UpdateBundleType(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid bundle type ID"})
	}

	var request BundleTypeInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate bundle type", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	bt, err := h.catalogService.UpdateBundleType(ctx, request.toBundleType(id))
	if err != nil {
		return writeError(c, "Failed to update bundle type", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(bt))
}

func (h *CatalogHandler) DeleteBundleType(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid bundle type ID"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.catalogService.DeleteBundleType(ctx, id); err != nil {
		return writeError(c, "Failed to delete bundle type", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("bundle type deleted"))
}

func (in BundleTypeInput) toBundleType(id uint64) *domain.BundleType {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &domain.BundleType{
		ID:             id,
		Name:           in.Name,
		Description:    in.Description,
		RequiredSnacks: in.RequiredSnacks,
		RequiredJuices: in.RequiredJuices,
		SellingPrice:   in.SellingPrice,
		PackagingCost:  in.PackagingCost,
		IsActive:       active,
	}
}
