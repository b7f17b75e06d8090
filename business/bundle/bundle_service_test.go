//go:build !integration

package bundle

import (
	"context"
	"errors"
	"testing"

	"justEatMore/business/allocation"
	"justEatMore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeInventory struct {
	items []domain.Item
	calls int
}

func (f *fakeInventory) ListAvailableItems(_ context.Context, _ domain.Category, includeEmpty bool) ([]domain.Item, error) {
	f.calls++
	var out []domain.Item
	for _, it := range f.items {
		if includeEmpty || it.Stock > 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

// scriptedAllocator answers enforced and relaxed passes with canned errors
// before delegating to the real solver.
type scriptedAllocator struct {
	enforceErr error
	relaxErr   error
	modes      []allocation.Mode
	solver     *allocation.Solver
}

func (s *scriptedAllocator) Solve(ctx context.Context, items []domain.Item, req domain.BundleRequest, mode allocation.Mode) (domain.AllocationResult, error) {
	s.modes = append(s.modes, mode)
	if mode == allocation.EnforceMargin && s.enforceErr != nil {
		return domain.AllocationResult{}, s.enforceErr
	}
	if mode == allocation.RelaxMargin && s.relaxErr != nil {
		return domain.AllocationResult{}, s.relaxErr
	}
	return s.solver.Solve(ctx, items, req, mode)
}

func snack(id uint64, name, cost string, stock int) domain.Item {
	return domain.Item{ID: id, Name: name, Category: domain.CategorySnack, UnitCost: d(cost), Stock: stock}
}

func newService(items ...domain.Item) (*BundleService, *fakeInventory) {
	inv := &fakeInventory{items: items}
	return NewBundleService(inv, allocation.NewSolver(allocation.Config{}), d("0.38")), inv
}

func TestQuotePredefinedMeetsMargin(t *testing.T) {
	svc, inv := newService(snack(1, "A", "30", 50), snack(2, "B", "45", 50))

	summary, err := svc.Quote(context.Background(), domain.BundleRequest{
		Kind:         domain.BundlePredefined,
		SellingPrice: d("1000"),
		SnackCount:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)

	assert.True(t, summary.MarginMet)
	assert.False(t, summary.NeedsApproval)
	assert.Equal(t, domain.PassMarginEnforced, summary.Pass)
	assert.True(t, summary.TotalCost.Equal(d("375")))
	assert.True(t, summary.NetProfit.Equal(d("625")))
	assert.True(t, summary.ProfitMargin.Equal(d("0.625")))
	assert.Equal(t, "Bundle generated successfully with 62.5% profit margin.", summary.Allocation.Message)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, 5, summary.Lines[0].Quantity)
	assert.Equal(t, "A", summary.Lines[0].Name)
}

func TestBuildPredefinedFallsBackWhenMarginImpossible(t *testing.T) {
	svc, _ := newService()
	items := []domain.Item{snack(1, "Chips", "16", 100)}

	summary, err := svc.Build(context.Background(), items, domain.BundleRequest{
		Kind:         domain.BundlePredefined,
		SellingPrice: d("500"),
		SnackCount:   25,
	})
	require.NoError(t, err)

	assert.False(t, summary.MarginMet)
	assert.True(t, summary.NeedsApproval)
	assert.Equal(t, domain.PassMarginRelaxed, summary.Pass)
	assert.True(t, summary.TotalCost.Equal(d("400")))
	assert.Equal(t, "Could only achieve 20.0% margin (target: 38.0%). Consider adjusting favorites or pricing.",
		summary.Allocation.Message)
}

func TestBuildPredefinedShortfallIsNotRelaxed(t *testing.T) {
	alloc := &scriptedAllocator{solver: allocation.NewSolver(allocation.Config{})}
	svc := NewBundleService(&fakeInventory{}, alloc, d("0.38"))
	items := []domain.Item{snack(1, "A", "10", 10), snack(2, "B", "12", 8)}

	_, err := svc.Build(context.Background(), items, domain.BundleRequest{
		Kind:         domain.BundlePredefined,
		SellingPrice: d("5000"),
		SnackCount:   30,
	})
	require.Error(t, err)
	assert.Equal(t, "need 30 snacks, only 18 in stock", err.Error())
	assert.Equal(t, []allocation.Mode{allocation.EnforceMargin}, alloc.modes)
}

func TestBuildPredefinedTimeoutTriggersRelaxedPass(t *testing.T) {
	alloc := &scriptedAllocator{
		enforceErr: domain.ErrSolverTimeout,
		solver:     allocation.NewSolver(allocation.Config{}),
	}
	svc := NewBundleService(&fakeInventory{}, alloc, d("0.38"))
	items := []domain.Item{snack(1, "A", "30", 50), snack(2, "B", "45", 50)}

	summary, err := svc.Build(context.Background(), items, domain.BundleRequest{
		SellingPrice: d("1000"),
		SnackCount:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, []allocation.Mode{allocation.EnforceMargin, allocation.RelaxMargin}, alloc.modes)
	assert.Equal(t, domain.PassMarginRelaxed, summary.Pass)
	// the relaxed allocation still clears the ceiling
	assert.True(t, summary.MarginMet)
}

func TestBuildRepeatedTimeoutIsInfeasible(t *testing.T) {
	alloc := &scriptedAllocator{enforceErr: domain.ErrSolverTimeout, relaxErr: domain.ErrSolverTimeout}
	svc := NewBundleService(&fakeInventory{}, alloc, d("0.38"))

	_, err := svc.Build(context.Background(), nil, domain.BundleRequest{SellingPrice: d("1000"), SnackCount: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
	assert.ErrorIs(t, err, domain.ErrSolverTimeout)
}

func TestBuildCustomDiscoversPrice(t *testing.T) {
	svc, _ := newService()
	items := []domain.Item{
		snack(1, "Cheap", "20", 50),
		snack(2, "Mid", "25", 50),
		snack(3, "Favorite", "100", 20),
	}

	summary, err := svc.Build(context.Background(), items, domain.BundleRequest{
		Kind:       domain.BundleCustom,
		SnackCount: 12,
		Favorites:  []uint64{3},
	})
	require.NoError(t, err)

	assert.True(t, summary.SellingPrice.Equal(d("700")), "price %s", summary.SellingPrice)
	assert.True(t, summary.MarginMet)
	assert.False(t, summary.NeedsApproval)
	assert.Equal(t, domain.PassMarginEnforced, summary.Pass)
	assert.GreaterOrEqual(t, summary.Allocation.Quantities[3], 2)
	assert.False(t, summary.ProfitMargin.LessThan(d("0.38")))
	assert.Equal(t, "Bundle generated successfully with 41.4% profit margin.", summary.Allocation.Message)

	total := 0
	for _, l := range summary.Lines {
		total += l.Quantity
		if l.ItemID == 3 {
			assert.True(t, l.Favorite)
		}
	}
	assert.Equal(t, 12, total)
}

func TestBuildCustomKeepsEstimateWhenLockFails(t *testing.T) {
	alloc := &scriptedAllocator{
		enforceErr: errors.Join(domain.ErrInfeasible, errors.New("boom")),
		solver:     allocation.NewSolver(allocation.Config{}),
	}
	svc := NewBundleService(&fakeInventory{}, alloc, d("0.38"))
	items := []domain.Item{snack(1, "A", "40", 50), snack(2, "B", "20", 50)}

	summary, err := svc.Build(context.Background(), items, domain.BundleRequest{Kind: domain.BundleCustom, SnackCount: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.PassMarginRelaxed, summary.Pass)
	assert.True(t, summary.SellingPrice.IsPositive())
	assert.True(t, summary.MarginMet)
}

func TestBuildCustomCountRules(t *testing.T) {
	svc, _ := newService(snack(1, "A", "10", 100))
	tests := []struct {
		name           string
		snacks, juices int
		wantErr        bool
	}{
		{name: "snacks only", snacks: 10},
		{name: "too few snacks", snacks: 5, wantErr: true},
		{name: "juices below minimum", snacks: 10, juices: 3, wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustomCounts(tt.snacks, tt.juices)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, err = svc.Quote(context.Background(), domain.BundleRequest{
					Kind: domain.BundleCustom, SnackCount: tt.snacks, JuiceCount: tt.juices,
				})
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildClampsTargetMargin(t *testing.T) {
	svc, _ := newService()
	items := []domain.Item{snack(1, "A", "30", 50), snack(2, "B", "45", 50)}

	summary, err := svc.Build(context.Background(), items, domain.BundleRequest{
		SellingPrice: d("1000"),
		SnackCount:   10,
		TargetMargin: d("0.1"),
	})
	require.NoError(t, err)
	assert.True(t, summary.TargetMargin.Equal(d("0.38")))

	summary, err = svc.Build(context.Background(), items, domain.BundleRequest{
		SellingPrice: d("1000"),
		SnackCount:   10,
		TargetMargin: d("0.5"),
	})
	require.NoError(t, err)
	assert.True(t, summary.TargetMargin.Equal(d("0.5")))
}

func TestBuildRejectsPredefinedWithoutPrice(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Build(context.Background(), []domain.Item{snack(1, "A", "1", 10)}, domain.BundleRequest{SnackCount: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
