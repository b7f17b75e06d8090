package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"justEatMore/domain"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.item_id")
	})
}

// Create inserts the order and its lines in one transaction.
func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *OrdersRepository) FindByID(ctx context.Context, id uint64) (domain.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *OrdersRepository) FindByReference(ctx context.Context, reference string) (domain.Order, error) {
	return r.findOne(ctx, "reference = ?", reference)
}

func (r *OrdersRepository) findOne(ctx context.Context, query string, arg interface{}) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("context error: %w", err)
	}

	var order domain.Order
	err := withItems(r.DB.WithContext(ctx)).Where(query, arg).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("failed to find order: %w", err)
	}

	return order, nil
}

func (r *OrdersRepository) FindAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := withItems(r.DB.WithContext(ctx)).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []domain.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}

	return orders, nil
}

func (r *OrdersRepository) FindOverdue(ctx context.Context, now time.Time) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var orders []domain.Order
	err := withItems(r.DB.WithContext(ctx)).
		Where("status = ? AND payment_deadline IS NOT NULL AND payment_deadline < ?", domain.StatusApproved, now).
		Order("payment_deadline").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue orders: %w", err)
	}

	return orders, nil
}

// UpdateItems swaps the order lines and the financial summary in one
// transaction.
func (r *OrdersRepository) UpdateItems(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"kind":               order.Kind,
			"selling_price":      order.SellingPrice,
			"packaging_cost":     order.PackagingCost,
			"total_cost":         order.TotalCost,
			"net_profit":         order.NetProfit,
			"profit_margin":      order.ProfitMargin,
			"target_margin":      order.TargetMargin,
			"margin_met":         order.MarginMet,
			"allocation_message": order.AllocationMessage,
			"diagnostics":        order.Diagnostics,
			"updated_at":         time.Now(),
		})
		if result.Error != nil {
			return fmt.Errorf("failed to update order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrOrderNotFound
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear order items: %w", err)
		}

		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].ID = 0
			order.Items[i].OrderID = order.ID
		}
		if err := tx.Create(&order.Items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		return nil
	})
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":           order.Status,
		"stock_committed":  order.StockCommitted,
		"payment_deadline": order.PaymentDeadline,
		"payment_link":     order.PaymentLink,
		"cancel_reason":    order.CancelReason,
		"updated_at":       time.Now(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}
