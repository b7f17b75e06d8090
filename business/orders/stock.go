package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"justEatMore/domain"
	"justEatMore/pkg/logger"
	"justEatMore/pkg/metrics"
)

type stockLine struct {
	itemID   uint64
	name     string
	quantity int
}

// lines aggregates an order's quantities per item, ordered by item id so
// concurrent commits touch items in the same order.
func lines(order domain.Order) []stockLine {
	byID := make(map[uint64]*stockLine, len(order.Items))
	for _, it := range order.Items {
		if it.Quantity <= 0 {
			continue
		}
		l, ok := byID[it.ItemID]
		if !ok {
			l = &stockLine{itemID: it.ItemID, name: it.ItemName}
			byID[it.ItemID] = l
		}
		l.quantity += it.Quantity
	}

	out := make([]stockLine, 0, len(byID))
	for _, l := range byID {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].itemID < out[j].itemID })
	return out
}

// commitStock decrements stock for every line. A failure restores the lines
// already taken so the batch applies fully or not at all.
func (s *OrdersService) commitStock(ctx context.Context, order domain.Order) error {
	var applied []stockLine
	for _, l := range lines(order) {
		if _, err := s.stock.AdjustStock(ctx, l.itemID, -l.quantity); err != nil {
			s.rollback(ctx, order, applied)

			var shortage *domain.StockShortageError
			if errors.As(err, &shortage) {
				if shortage.ItemName == "" {
					shortage.ItemName = l.name
				}
				metrics.StockCommitFailures.Inc()
				logger.Warn("stock commit rejected",
					"order_ref", order.Reference,
					"item_id", l.itemID,
					"requested", shortage.Requested,
					"available", shortage.Available,
				)
				return shortage
			}
			return fmt.Errorf("failed to commit stock for item %d: %w", l.itemID, err)
		}
		applied = append(applied, l)
	}

	logger.Info("stock committed", "order_ref", order.Reference, "lines", len(applied))
	return nil
}

// rollback gives back lines taken by a failed commit. It runs even when ctx
// is already cancelled.
func (s *OrdersService) rollback(ctx context.Context, order domain.Order, applied []stockLine) {
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		l := applied[i]
		if _, err := s.stock.AdjustStock(ctx, l.itemID, l.quantity); err != nil {
			logger.Error("failed to roll back stock", err, "order_ref", order.Reference, "item_id", l.itemID)
		}
	}
}

// restoreStock gives committed quantities back to inventory. A failure takes
// back the lines already returned, so the order stays fully committed and a
// retry returns each line once.
func (s *OrdersService) restoreStock(ctx context.Context, order domain.Order) error {
	var returned []stockLine
	for _, l := range lines(order) {
		if _, err := s.stock.AdjustStock(ctx, l.itemID, l.quantity); err != nil {
			logger.Error("failed to restore stock", err, "order_ref", order.Reference, "item_id", l.itemID)
			s.retake(ctx, order, returned)
			return fmt.Errorf("failed to restore stock for item %d: %w", l.itemID, err)
		}
		returned = append(returned, l)
	}
	logger.Info("stock restored", "order_ref", order.Reference)
	return nil
}

func (s *OrdersService) retake(ctx context.Context, order domain.Order, returned []stockLine) {
	ctx = context.WithoutCancel(ctx)
	for i := len(returned) - 1; i >= 0; i-- {
		l := returned[i]
		if _, err := s.stock.AdjustStock(ctx, l.itemID, -l.quantity); err != nil {
			logger.Error("failed to take back restored stock", err, "order_ref", order.Reference, "item_id", l.itemID)
		}
	}
}
