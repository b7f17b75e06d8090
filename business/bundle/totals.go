package bundle

import (
	"justEatMore/business/margin"
	"justEatMore/domain"

	"github.com/shopspring/decimal"
)

// RecalculateTotals derives an order's cost, profit and margin from its lines.
// It returns a new value and never persists anything.
func RecalculateTotals(order domain.Order) domain.Order {
	out := order
	out.Items = append([]domain.OrderItem(nil), order.Items...)

	cost := decimal.Zero
	for _, it := range out.Items {
		cost = cost.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	out.TotalCost = cost
	out.NetProfit = margin.NetProfit(out.SellingPrice, cost, out.PackagingCost)
	out.ProfitMargin = margin.AchievedMargin(out.SellingPrice, cost.Add(out.PackagingCost))
	out.MarginMet = out.SellingPrice.IsPositive() && !out.ProfitMargin.LessThan(out.TargetMargin)
	return out
}

// ApplySummary replaces an order's lines and pricing with an allocation
// summary, keeping the starred flags of lines that survive.
func ApplySummary(order domain.Order, summary domain.BundleSummary) domain.Order {
	starred := make(map[uint64]bool, len(order.Items))
	for _, it := range order.Items {
		if it.IsStarred {
			starred[it.ItemID] = true
		}
	}

	out := order
	out.Items = make([]domain.OrderItem, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		out.Items = append(out.Items, domain.OrderItem{
			OrderID:   order.ID,
			ItemID:    l.ItemID,
			ItemName:  l.Name,
			Category:  l.Category,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			IsStarred: l.Favorite || starred[l.ItemID],
		})
	}

	out.Kind = summary.Kind
	out.SellingPrice = summary.SellingPrice
	out.PackagingCost = summary.PackagingCost
	out.TargetMargin = summary.TargetMargin
	out.AllocationMessage = summary.Allocation.Message
	out.Diagnostics = map[string]interface{}{
		"pass":           summary.Pass,
		"needs_approval": summary.NeedsApproval,
		"margin_met":     summary.MarginMet,
	}

	out = RecalculateTotals(out)
	out.MarginMet = summary.MarginMet
	return out
}
