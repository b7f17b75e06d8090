package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"justEatMore/domain"

	"gorm.io/gorm"
)

type ItemRepository struct {
	DB *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{
		DB: db,
	}
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id uint64) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, fmt.Errorf("context error: %w", err)
	}

	var item domain.Item
	err := r.DB.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Item{}, domain.ErrItemNotFound
		}
		return domain.Item{}, fmt.Errorf("failed to find item: %w", err)
	}

	return item, nil
}

func (r *ItemRepository) FindAll(ctx context.Context, category domain.Category) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Order("id")
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var items []domain.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) FindAvailable(ctx context.Context, category domain.Category, includeEmpty bool) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Order("id")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if !includeEmpty {
		q = q.Where("current_stock > 0")
	}

	var items []domain.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find available items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) FindLowStock(ctx context.Context, threshold int) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.Item
	err := r.DB.WithContext(ctx).Where("current_stock < ?", threshold).Order("current_stock, id").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find low stock items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) Update(ctx context.Context, item *domain.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"name":          item.Name,
		"category":      item.Category,
		"cost_per_bag":  item.CostPerBag,
		"units_per_bag": item.UnitsPerBag,
		"unit_cost":     item.UnitCost,
		"current_stock": item.Stock,
		"is_spicy":      item.IsSpicy,
		"updated_at":    time.Now(),
	}

	result := r.DB.WithContext(ctx).Model(&domain.Item{}).Where("id = ?", item.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Delete(&domain.Item{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

// AdjustStock applies delta with a guarded UPDATE so concurrent commits can
// never take stock below zero.
func (r *ItemRepository) AdjustStock(ctx context.Context, id uint64, delta int) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, fmt.Errorf("context error: %w", err)
	}

	var item domain.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Item{}).
			Where("id = ? AND current_stock + ? >= 0", id, delta).
			Updates(map[string]interface{}{
				"current_stock": gorm.Expr("current_stock + ?", delta),
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}

		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrItemNotFound
			}
			return err
		}

		if result.RowsAffected == 0 {
			return &domain.StockShortageError{
				ItemID:    id,
				ItemName:  item.Name,
				Requested: -delta,
				Available: item.Stock,
			}
		}
		return nil
	})
	if err != nil {
		return domain.Item{}, err
	}

	return item, nil
}
