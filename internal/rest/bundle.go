package rest

import (
	"context"
	"net/http"
	"time"

	"justEatMore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type (
	BundleHandler struct {
		validate *validator.Validate
		bundles  BundleQuoter
		catalog  BundleTypeFinder
		timeout  time.Duration
	}

	BundleQuoter interface {
		Quote(ctx context.Context, req domain.BundleRequest) (domain.BundleSummary, error)
	}

	BundleTypeFinder interface {
		FindByID(ctx context.Context, id uint64) (domain.BundleType, error)
	}

	QuoteInput struct {
		BundleTypeID *uint64         `json:"bundle_type_id"`
		SnackCount   int             `json:"snack_count" validate:"gte=0"`
		JuiceCount   int             `json:"juice_count" validate:"gte=0"`
		Favorites    []uint64        `json:"favorites"`
		AllowList    []uint64        `json:"allow_list"`
		TargetMargin decimal.Decimal `json:"target_margin"`
		// PackagingCost applies to custom bundles only.
		PackagingCost decimal.Decimal `json:"packaging_cost"`
	}
)

func NewBundleHandler(bundles BundleQuoter, catalog BundleTypeFinder) *BundleHandler {
	return &BundleHandler{
		validate: validator.New(),
		bundles:  bundles,
		catalog:  catalog,
		timeout:  10 * time.Second,
	}
}

func (h *BundleHandler) Quote(c echo.Context) error {
	var request QuoteInput

	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	if err := h.validate.Struct(&request); err != nil {
		return badRequest(c, "Failed to validate quote request", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	req := domain.BundleRequest{
		Kind:          domain.BundleCustom,
		SnackCount:    request.SnackCount,
		JuiceCount:    request.JuiceCount,
		PackagingCost: request.PackagingCost,
		TargetMargin:  request.TargetMargin,
		Favorites:     request.Favorites,
		AllowList:     request.AllowList,
	}

	if request.BundleTypeID != nil {
		bt, err := h.catalog.FindByID(ctx, *request.BundleTypeID)
		if err != nil {
			return writeError(c, "Failed to find bundle type", err)
		}
		req.Kind = domain.BundlePredefined
		req.SellingPrice = bt.SellingPrice
		req.SnackCount = bt.RequiredSnacks
		req.JuiceCount = bt.RequiredJuices
		req.PackagingCost = bt.PackagingCost
	}

	summary, err := h.bundles.Quote(ctx, req)
	if err != nil {
		return writeError(c, "Failed to quote bundle", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(summary))
}
