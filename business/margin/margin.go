// Package margin converts between selling price, cost ceiling and profit margin.
// Every function is pure and works on decimal currency.
package margin

import (
	"justEatMore/domain"

	"github.com/shopspring/decimal"
)

var (
	// MinimumMargin is the business floor applied to every requested target.
	MinimumMargin = decimal.RequireFromString("0.38")

	// PriceResolution is the step prices are quoted in.
	PriceResolution = decimal.NewFromInt(100)

	one = decimal.NewFromInt(1)
)

// ClampTarget raises a requested margin to the business floor. A zero target
// means the caller did not ask for one.
func ClampTarget(target decimal.Decimal) decimal.Decimal {
	if target.LessThan(MinimumMargin) {
		return MinimumMargin
	}
	return target
}

// MaxAllowedCost is the most the bundle contents may cost for the price to
// keep the target margin: price × (1 − target) − packaging. The result can be
// negative when packaging alone eats the allowance.
func MaxAllowedCost(price, target, packaging decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, domain.InvalidInput("selling_price", "must not be negative")
	}
	if err := checkTarget(target); err != nil {
		return decimal.Zero, err
	}
	return price.Mul(one.Sub(target)).Sub(packaging), nil
}

// AchievedMargin is (price − cost) / price, or zero when there is no price.
func AchievedMargin(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price)
}

// PriceForTargetMargin returns cost / (1 − target) rounded up to the next
// PriceResolution step, so AchievedMargin(price, cost) >= target always holds.
// A zero cost prices at one PriceResolution step rather than zero, since a
// zero price has no margin at all.
func PriceForTargetMargin(cost, target decimal.Decimal) (decimal.Decimal, error) {
	if !target.LessThan(one) {
		return decimal.Zero, domain.InvalidInput("target_margin", "must be below 1")
	}
	if target.IsNegative() {
		return decimal.Zero, domain.InvalidInput("target_margin", "must not be negative")
	}
	if cost.IsNegative() {
		return decimal.Zero, domain.InvalidInput("total_cost", "must not be negative")
	}

	raw := cost.Div(one.Sub(target))
	price := raw.Div(PriceResolution).Ceil().Mul(PriceResolution)
	if price.IsZero() {
		price = PriceResolution
	}
	return price, nil
}

// NetProfit is price − cost − packaging.
func NetProfit(price, cost, packaging decimal.Decimal) decimal.Decimal {
	return price.Sub(cost).Sub(packaging)
}

// Percent renders a fraction as "38.0".
func Percent(f decimal.Decimal) string {
	return f.Mul(decimal.NewFromInt(100)).StringFixed(1)
}

func checkTarget(target decimal.Decimal) error {
	if target.IsNegative() || !target.LessThan(one) {
		return domain.InvalidInput("target_margin", "must be in [0, 1)")
	}
	return nil
}
