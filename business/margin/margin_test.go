//go:build !integration

package margin

import (
	"errors"
	"testing"

	"justEatMore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMaxAllowedCost(t *testing.T) {
	tests := []struct {
		name      string
		price     string
		target    string
		packaging string
		want      string
		wantErr   bool
	}{
		{name: "ten snacks bundle", price: "1000", target: "0.38", packaging: "0", want: "620"},
		{name: "with packaging", price: "1000", target: "0.38", packaging: "50", want: "570"},
		{name: "zero target", price: "700", target: "0", packaging: "0", want: "700"},
		{name: "negative price", price: "-1", target: "0.38", packaging: "0", wantErr: true},
		{name: "margin of one", price: "1000", target: "1", packaging: "0", wantErr: true},
		{name: "negative margin", price: "1000", target: "-0.1", packaging: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaxAllowedCost(d(tt.price), d(tt.target), d(tt.packaging))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}
}

func TestAchievedMargin(t *testing.T) {
	assert.True(t, AchievedMargin(d("500"), d("400")).Equal(d("0.2")))
	assert.True(t, AchievedMargin(d("1000"), d("375")).Equal(d("0.625")))
	assert.True(t, AchievedMargin(d("0"), d("400")).IsZero())
	assert.True(t, AchievedMargin(d("-10"), d("400")).IsZero())
}

func TestPriceForTargetMargin(t *testing.T) {
	price, err := PriceForTargetMargin(d("400"), d("0.38"))
	require.NoError(t, err)
	// 400 / 0.62 = 645.16 -> 700
	assert.True(t, price.Equal(d("700")), "got %s", price)

	price, err = PriceForTargetMargin(d("620"), d("0.38"))
	require.NoError(t, err)
	assert.True(t, price.Equal(d("1000")), "got %s", price)

	price, err = PriceForTargetMargin(d("0"), d("0.38"))
	require.NoError(t, err)
	assert.True(t, price.Equal(PriceResolution))

	_, err = PriceForTargetMargin(d("400"), d("1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPriceRoundingNeverLosesMargin(t *testing.T) {
	targets := []string{"0.38", "0.4", "0.5", "0.66"}
	for _, target := range targets {
		for cost := int64(1); cost <= 3000; cost += 7 {
			c := decimal.NewFromInt(cost).Add(d("0.3333"))
			price, err := PriceForTargetMargin(c, d(target))
			require.NoError(t, err)
			assert.False(t, AchievedMargin(price, c).LessThan(d(target)),
				"cost %s target %s price %s", c, target, price)
			assert.True(t, price.Mod(PriceResolution).IsZero())
		}
	}
}

func TestClampTarget(t *testing.T) {
	assert.True(t, ClampTarget(d("0")).Equal(MinimumMargin))
	assert.True(t, ClampTarget(d("0.2")).Equal(MinimumMargin))
	assert.True(t, ClampTarget(d("0.45")).Equal(d("0.45")))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "38.0", Percent(d("0.38")))
	assert.Equal(t, "20.0", Percent(d("0.2")))
	assert.Equal(t, "62.5", Percent(d("0.625")))
}
