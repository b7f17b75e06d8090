//go:build !integration

package inventory

import (
	"context"
	"sync"
	"testing"

	"justEatMore/domain"
	"justEatMore/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItemDerivesUnitCost(t *testing.T) {
	svc := NewInventoryService(memory.NewItemRepository())

	item, err := svc.CreateItem(context.Background(), &domain.Item{
		Name:        "Chips",
		Category:    domain.CategorySnack,
		CostPerBag:  decimal.NewFromInt(100),
		UnitsPerBag: 3,
		Stock:       12,
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "33.3333", item.UnitCost.String())
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewInventoryService(memory.NewItemRepository())
	ctx := context.Background()

	tests := []struct {
		name string
		item domain.Item
	}{
		{"missing name", domain.Item{Category: domain.CategorySnack, UnitCost: decimal.NewFromInt(1)}},
		{"bad category", domain.Item{Name: "Tea", Category: "drink", UnitCost: decimal.NewFromInt(1)}},
		{"no cost", domain.Item{Name: "Tea", Category: domain.CategoryJuice}},
		{"negative stock", domain.Item{Name: "Tea", Category: domain.CategoryJuice, UnitCost: decimal.NewFromInt(1), Stock: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, &tt.item)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestListAvailableItems(t *testing.T) {
	repo := memory.NewItemRepository(
		domain.Item{Name: "Chips", Category: domain.CategorySnack, UnitCost: decimal.NewFromInt(30), Stock: 4},
		domain.Item{Name: "Wafers", Category: domain.CategorySnack, UnitCost: decimal.NewFromInt(45)},
		domain.Item{Name: "Mango", Category: domain.CategoryJuice, UnitCost: decimal.NewFromInt(60), Stock: 9},
	)
	svc := NewInventoryService(repo)
	ctx := context.Background()

	items, err := svc.ListAvailableItems(ctx, "", false)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.ListAvailableItems(ctx, domain.CategorySnack, true)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	low, err := svc.LowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Chips", low[0].Name)
	assert.Equal(t, "Wafers", low[1].Name)

	_, err = svc.ListItems(ctx, "drink")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	repo := memory.NewItemRepository(
		domain.Item{Name: "Chips", Category: domain.CategorySnack, UnitCost: decimal.NewFromInt(30), Stock: 100},
	)
	svc := NewInventoryService(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AdjustStock(ctx, 1, -7); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	item, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 14, ok)
	assert.Equal(t, 2, item.Stock)

	_, err = svc.AdjustStock(ctx, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.AdjustStock(ctx, 42, 1)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	repo := memory.NewItemRepository(
		domain.Item{Name: "Chips", Category: domain.CategorySnack, UnitCost: decimal.NewFromInt(30), Stock: 10},
	)
	svc := NewInventoryService(repo)
	ctx := context.Background()

	updated, err := svc.UpdateItem(ctx, &domain.Item{
		ID:          1,
		Name:        "Chips XL",
		Category:    domain.CategorySnack,
		CostPerBag:  decimal.NewFromInt(120),
		UnitsPerBag: 4,
		Stock:       10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Chips XL", updated.Name)
	assert.True(t, updated.UnitCost.Equal(decimal.NewFromInt(30)))

	require.NoError(t, svc.DeleteItem(ctx, 1))
	_, err = svc.GetItem(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.ErrorIs(t, svc.DeleteItem(ctx, 0), domain.ErrInvalidInput)
}
