//go:build !integration

package bundle

import (
	"testing"

	"justEatMore/domain"

	"github.com/stretchr/testify/assert"
)

func TestRecalculateTotals(t *testing.T) {
	order := domain.Order{
		SellingPrice:  d("1000"),
		PackagingCost: d("25"),
		TargetMargin:  d("0.38"),
		Items: []domain.OrderItem{
			{ItemID: 1, Quantity: 5, UnitCost: d("30")},
			{ItemID: 2, Quantity: 5, UnitCost: d("45")},
		},
	}

	got := RecalculateTotals(order)

	assert.True(t, got.TotalCost.Equal(d("375")))
	assert.True(t, got.NetProfit.Equal(d("600")))
	assert.True(t, got.ProfitMargin.Equal(d("0.6")))
	assert.True(t, got.MarginMet)

	// input untouched
	assert.True(t, order.TotalCost.IsZero())
	got.Items[0].Quantity = 99
	assert.Equal(t, 5, order.Items[0].Quantity)
}

func TestRecalculateTotalsWithoutPrice(t *testing.T) {
	got := RecalculateTotals(domain.Order{
		TargetMargin: d("0.38"),
		Items:        []domain.OrderItem{{ItemID: 1, Quantity: 2, UnitCost: d("10")}},
	})
	assert.True(t, got.ProfitMargin.IsZero())
	assert.False(t, got.MarginMet)
}

func TestApplySummaryKeepsStarredLines(t *testing.T) {
	order := domain.Order{
		ID: 7,
		Items: []domain.OrderItem{
			{ItemID: 1, Quantity: 3, IsStarred: true},
			{ItemID: 2, Quantity: 3},
		},
	}
	summary := domain.BundleSummary{
		Kind:         domain.BundleCustom,
		SellingPrice: d("700"),
		TargetMargin: d("0.38"),
		MarginMet:    true,
		Pass:         domain.PassMarginEnforced,
		Allocation:   domain.AllocationResult{Message: "ok"},
		Lines: []domain.BundleLine{
			{ItemID: 1, Quantity: 4, UnitCost: d("20")},
			{ItemID: 3, Quantity: 6, UnitCost: d("25"), Favorite: true},
		},
	}

	got := ApplySummary(order, summary)

	assert.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].IsStarred)
	assert.True(t, got.Items[1].IsStarred)
	assert.Equal(t, uint64(7), got.Items[0].OrderID)
	assert.True(t, got.TotalCost.Equal(d("230")))
	assert.True(t, got.NetProfit.Equal(d("470")))
	assert.Equal(t, "ok", got.AllocationMessage)
	assert.Equal(t, domain.PassMarginEnforced, got.Diagnostics["pass"])
	assert.True(t, got.MarginMet)
}
