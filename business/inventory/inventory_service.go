package inventory

import (
	"context"
	"errors"
	"fmt"

	"justEatMore/domain"
	"justEatMore/pkg/logger"
)

// ItemRepository contract interface
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	FindByID(ctx context.Context, id uint64) (domain.Item, error)
	FindAll(ctx context.Context, category domain.Category) ([]domain.Item, error)
	FindAvailable(ctx context.Context, category domain.Category, includeEmpty bool) ([]domain.Item, error)
	FindLowStock(ctx context.Context, threshold int) ([]domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id uint64) error
	// AdjustStock applies delta atomically and fails with
	// domain.ErrInsufficientStock instead of going below zero.
	AdjustStock(ctx context.Context, id uint64, delta int) (domain.Item, error)
}

type inventoryService struct {
	itemRepo ItemRepository
}

func NewInventoryService(itemRepo ItemRepository) *inventoryService {
	return &inventoryService{
		itemRepo: itemRepo,
	}
}

func (s *inventoryService) ListItems(ctx context.Context, category domain.Category) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when listing items")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if category != "" && !category.Valid() {
		logger.Error("Invalid item category", "category", string(category))
		return nil, domain.InvalidInput("category", "must be snack or juice")
	}

	items, err := s.itemRepo.FindAll(ctx, category)
	if err != nil {
		logger.Error("Failed to find items", err)
		return nil, err
	}

	return items, nil
}

// ListAvailableItems is the read-only snapshot allocation works from. Zero-stock
// items are left out unless includeEmpty is set.
func (s *inventoryService) ListAvailableItems(ctx context.Context, category domain.Category, includeEmpty bool) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when listing available items")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if category != "" && !category.Valid() {
		return nil, domain.InvalidInput("category", "must be snack or juice")
	}

	items, err := s.itemRepo.FindAvailable(ctx, category, includeEmpty)
	if err != nil {
		logger.Error("Failed to find available items", err)
		return nil, err
	}

	return items, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uint64) (*domain.Item, error) {
	if id == 0 {
		logger.Error("invalid item id")
		return nil, domain.InvalidInput("id", "is required")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when get item")
		return nil, fmt.Errorf("context error: %w", err)
	}

	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find item by id", err)
		return nil, err
	}

	return &item, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when create item")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := validateItem(item); err != nil {
		logger.Error("Invalid item data", err)
		return nil, err
	}

	item.DeriveUnitCost()

	if err := s.itemRepo.Create(ctx, item); err != nil {
		logger.Error("failed to create new item", err)
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	logger.Info("item created successfully", "item_id", item.ID)

	return item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when updating item")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if item.ID == 0 {
		logger.Error("Invalid item data: ID is required")
		return nil, domain.InvalidInput("id", "is required")
	}

	if err := validateItem(item); err != nil {
		logger.Error("Invalid item data", err)
		return nil, err
	}

	if _, err := s.itemRepo.FindByID(ctx, item.ID); err != nil {
		logger.Error("item not found", err)
		return nil, err
	}

	item.DeriveUnitCost()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		logger.Error("failed to update item", err)
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	updated, err := s.itemRepo.FindByID(ctx, item.ID)
	if err != nil {
		logger.Error("failed to fetch updated item", err)
		return nil, fmt.Errorf("failed to fetch updated item: %w", err)
	}

	logger.Info("item updated success", "item_id", item.ID)

	return &updated, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id uint64) error {
	if id == 0 {
		logger.Error("Invalid item id when deleting item")
		return domain.InvalidInput("id", "is required")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when deleting item")
		return fmt.Errorf("context error: %w", err)
	}

	if _, err := s.itemRepo.FindByID(ctx, id); err != nil {
		logger.Error("item not found", err)
		return err
	}

	if err := s.itemRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete item", err)
		return fmt.Errorf("failed to delete item: %w", err)
	}

	logger.Info("item deleted success", "item_id", id)

	return nil
}

// AdjustStock is the manual restock / write-off path.
func (s *inventoryService) AdjustStock(ctx context.Context, id uint64, delta int) (*domain.Item, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when adjusting stock")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if delta == 0 {
		return nil, domain.InvalidInput("delta", "must not be zero")
	}

	item, err := s.itemRepo.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			logger.Warn("stock adjustment rejected", "item_id", id, "delta", delta)
		} else {
			logger.Error("failed to adjust stock", err)
		}
		return nil, err
	}

	logger.Info("stock adjusted", "item_id", id, "delta", delta, "stock", item.Stock)

	return &item, nil
}

func (s *inventoryService) LowStockItems(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when listing low stock items")
		return nil, fmt.Errorf("context error: %w", err)
	}

	items, err := s.itemRepo.FindLowStock(ctx, domain.LowStockThreshold)
	if err != nil {
		logger.Error("failed to find low stock items", err)
		return nil, err
	}

	return items, nil
}

func validateItem(item *domain.Item) error {
	if item.Name == "" {
		return domain.InvalidInput("name", "is required")
	}
	if !item.Category.Valid() {
		return domain.InvalidInput("category", "must be snack or juice")
	}
	if item.UnitsPerBag < 0 {
		return domain.InvalidInput("units_per_bag", "cannot be negative")
	}
	if item.CostPerBag.IsNegative() || item.UnitCost.IsNegative() {
		return domain.InvalidInput("cost", "cannot be negative")
	}
	if item.CostPerBag.IsZero() && item.UnitCost.IsZero() {
		return domain.InvalidInput("cost", "either cost_per_bag or unit_cost is required")
	}
	if item.Stock < 0 {
		return domain.InvalidInput("stock", "cannot be negative")
	}
	return nil
}
