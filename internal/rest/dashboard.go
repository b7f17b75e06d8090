package rest

import (
	"context"
	"net/http"
	"time"

	"justEatMore/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	DashboardHandler struct {
		stats   OrderStatsReader
		stock   LowStockReader
		timeout time.Duration
	}

	OrderStatsReader interface {
		Stats(ctx context.Context) (domain.OrderStats, error)
	}

	LowStockReader interface {
		LowStockItems(ctx context.Context) ([]domain.Item, error)
	}

	Dashboard struct {
		Orders   domain.OrderStats `json:"orders"`
		LowStock []domain.Item     `json:"low_stock"`
	}
)

func NewDashboardHandler(stats OrderStatsReader, stock LowStockReader) *DashboardHandler {
	return &DashboardHandler{
		stats:   stats,
		stock:   stock,
		timeout: 10 * time.Second,
	}
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		return writeError(c, "Failed to load order stats", err)
	}

	low, err := h.stock.LowStockItems(ctx)
	if err != nil {
		return writeError(c, "Failed to load low stock items", err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(Dashboard{Orders: stats, LowStock: low}))
}
