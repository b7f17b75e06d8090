//go:build !integration

package allocation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"justEatMore/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func snack(id uint64, cost string, stock int) domain.Item {
	return domain.Item{ID: id, Name: "snack", Category: domain.CategorySnack, UnitCost: d(cost), Stock: stock}
}

func juice(id uint64, cost string, stock int) domain.Item {
	return domain.Item{ID: id, Name: "juice", Category: domain.CategoryJuice, UnitCost: d(cost), Stock: stock}
}

func newTestSolver() *Solver {
	return NewSolver(Config{})
}

func TestSolveSpreadsQuantityInVarietyMode(t *testing.T) {
	items := []domain.Item{snack(2, "45", 50), snack(1, "30", 50)}
	req := domain.BundleRequest{
		Kind:         domain.BundlePredefined,
		SellingPrice: d("1000"),
		SnackCount:   10,
		TargetMargin: d("0.38"),
	}

	res, err := newTestSolver().Solve(context.Background(), items, req, EnforceMargin)
	require.NoError(t, err)

	assert.Equal(t, map[uint64]int{1: 5, 2: 5}, res.Quantities)
	assert.True(t, res.TotalCost.Equal(d("375")), "total cost %s", res.TotalCost)
	assert.True(t, res.MarginMet)
	assert.True(t, res.TotalCost.LessThanOrEqual(d("620")))
}

func TestSolveVarietyCapLimitsConcentration(t *testing.T) {
	items := []domain.Item{
		snack(1, "10", 50),
		snack(2, "20", 50),
		snack(3, "30", 50),
		snack(4, "40", 50),
	}
	req := domain.BundleRequest{SnackCount: 10, SellingPrice: d("1000"), TargetMargin: d("0.38")}

	res, err := newTestSolver().Solve(context.Background(), items, req, EnforceMargin)
	require.NoError(t, err)

	assert.Equal(t, map[uint64]int{1: 3, 2: 3, 3: 3, 4: 1}, res.Quantities)
}

func TestSolveFavoritesGetBoosted(t *testing.T) {
	items := []domain.Item{snack(1, "20", 50), snack(2, "25", 50), snack(3, "100", 20)}
	req := domain.BundleRequest{
		Kind:       domain.BundleCustom,
		SnackCount: 12,
		Favorites:  []uint64{3},
	}

	res, err := newTestSolver().Solve(context.Background(), items, req, RelaxMargin)
	require.NoError(t, err)

	assert.Equal(t, map[uint64]int{1: 8, 2: 2, 3: 2}, res.Quantities)
	assert.True(t, res.TotalCost.Equal(d("410")))
	assert.False(t, res.MarginMet)
}

func TestSolveCategoryShortfall(t *testing.T) {
	items := []domain.Item{snack(1, "10", 10), snack(2, "12", 8)}
	req := domain.BundleRequest{SnackCount: 30, SellingPrice: d("5000"), TargetMargin: d("0.38")}

	_, err := newTestSolver().Solve(context.Background(), items, req, EnforceMargin)
	require.Error(t, err)

	var shortfall *domain.ShortfallError
	require.True(t, errors.As(err, &shortfall))
	assert.Equal(t, "need 30 snacks, only 18 in stock", err.Error())
	assert.Equal(t, 30, shortfall.Need)
	assert.Equal(t, 18, shortfall.Have)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestSolveEmptyCategory(t *testing.T) {
	items := []domain.Item{snack(1, "10", 10)}
	req := domain.BundleRequest{SnackCount: 2, JuiceCount: 5}

	_, err := newTestSolver().Solve(context.Background(), items, req, RelaxMargin)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
	assert.Contains(t, err.Error(), "need 5 juices")
}

func TestSolveMarginImpossible(t *testing.T) {
	items := []domain.Item{snack(1, "16", 100)}
	req := domain.BundleRequest{SnackCount: 25, SellingPrice: d("500"), TargetMargin: d("0.38")}
	s := newTestSolver()

	_, err := s.Solve(context.Background(), items, req, EnforceMargin)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)

	res, err := s.Solve(context.Background(), items, req, RelaxMargin)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]int{1: 25}, res.Quantities)
	assert.True(t, res.TotalCost.Equal(d("400")))
	assert.True(t, res.AchievedMargin.Equal(d("0.2")))
	assert.False(t, res.MarginMet)
}

func TestSolveCeilingTradesFavoritesForCost(t *testing.T) {
	items := []domain.Item{snack(1, "10", 10), snack(2, "9.95", 10)}
	req := domain.BundleRequest{
		SnackCount:    10,
		SellingPrice:  d("100"),
		PackagingCost: d("0.2"),
		TargetMargin:  d("0"),
		Favorites:     []uint64{1},
	}
	s := newTestSolver()

	relaxed, err := s.Solve(context.Background(), items, req, RelaxMargin)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]int{1: 9, 2: 1}, relaxed.Quantities)
	assert.False(t, relaxed.MarginMet)

	res, err := s.Solve(context.Background(), items, req, EnforceMargin)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]int{1: 6, 2: 4}, res.Quantities)
	assert.True(t, res.TotalCost.Equal(d("99.8")), "total cost %s", res.TotalCost)
	assert.True(t, res.MarginMet)
}

func TestSolveAllowListNeverSubstitutes(t *testing.T) {
	items := []domain.Item{
		snack(1, "1", 50),
		snack(2, "30", 50),
		snack(3, "35", 50),
		juice(4, "1", 50),
		juice(5, "20", 50),
	}
	req := domain.BundleRequest{
		SnackCount: 10,
		JuiceCount: 10,
		AllowList:  []uint64{2, 3, 5},
	}

	res, err := newTestSolver().Solve(context.Background(), items, req, RelaxMargin)
	require.NoError(t, err)

	for id := range res.Quantities {
		assert.Contains(t, []uint64{2, 3, 5}, id)
	}
	assert.Equal(t, 10, res.Quantities[2]+res.Quantities[3])
	assert.Equal(t, 10, res.Quantities[5])
}

func TestSolveIgnoreStock(t *testing.T) {
	items := []domain.Item{snack(1, "5", 2), snack(2, "6", 0)}
	req := domain.BundleRequest{SnackCount: 10, IgnoreStock: true}

	res, err := newTestSolver().Solve(context.Background(), items, req, RelaxMargin)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Quantities[1]+res.Quantities[2])

	req.IgnoreStock = false
	_, err = newTestSolver().Solve(context.Background(), items, req, RelaxMargin)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestSolveTooManyFavorites(t *testing.T) {
	items := []domain.Item{snack(1, "5", 5), snack(2, "6", 5), snack(3, "7", 5)}
	req := domain.BundleRequest{SnackCount: 2, Favorites: []uint64{1, 2, 3}}

	_, err := newTestSolver().Solve(context.Background(), items, req, RelaxMargin)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInfeasible)
	assert.Contains(t, err.Error(), "3 favorite snacks")
}

func TestSolveInvalidInput(t *testing.T) {
	items := []domain.Item{snack(1, "5", 5)}
	tests := []struct {
		name string
		req  domain.BundleRequest
		mode Mode
	}{
		{name: "negative count", req: domain.BundleRequest{SnackCount: -1, JuiceCount: 3}, mode: RelaxMargin},
		{name: "empty bundle", req: domain.BundleRequest{}, mode: RelaxMargin},
		{name: "negative price", req: domain.BundleRequest{SnackCount: 2, SellingPrice: d("-1")}, mode: RelaxMargin},
		{name: "margin of one", req: domain.BundleRequest{SnackCount: 2, SellingPrice: d("100"), TargetMargin: d("1")}, mode: EnforceMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSolver().Solve(context.Background(), items, tt.req, tt.mode)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSolveExpiredContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSolver().Solve(ctx, []domain.Item{snack(1, "5", 5)}, domain.BundleRequest{SnackCount: 2}, RelaxMargin)
	assert.ErrorIs(t, err, domain.ErrSolverTimeout)
}

func TestSolveNodeLimitKeepsBestFound(t *testing.T) {
	items := []domain.Item{snack(1, "10", 10), snack(2, "9.95", 10)}
	req := domain.BundleRequest{
		SnackCount:    10,
		SellingPrice:  d("100"),
		PackagingCost: d("0.2"),
		Favorites:     []uint64{1},
	}

	res, err := NewSolver(Config{MaxNodes: 1}).Solve(context.Background(), items, req, EnforceMargin)
	require.NoError(t, err)
	assert.True(t, res.TotalCost.LessThanOrEqual(d("99.8")))
	assert.Equal(t, 10, res.Quantities[1]+res.Quantities[2])
}

func TestSolveIsDeterministic(t *testing.T) {
	items := []domain.Item{
		juice(9, "12", 6),
		snack(3, "7.5", 4),
		snack(1, "7.5", 4),
		juice(7, "12", 6),
		snack(2, "8", 9),
	}
	req := domain.BundleRequest{
		SnackCount:   10,
		JuiceCount:   4,
		SellingPrice: d("300"),
		TargetMargin: d("0.38"),
		Favorites:    []uint64{2},
	}

	s := newTestSolver()
	first, err := s.Solve(context.Background(), items, req, EnforceMargin)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := s.Solve(context.Background(), items, req, EnforceMargin)
		require.NoError(t, err)
		assert.Equal(t, first.Quantities, again.Quantities)
		assert.True(t, first.TotalCost.Equal(again.TotalCost))
	}
}

// bruteForce enumerates every integer point inside the model bounds.
func bruteForce(m *model) ([]int, float64) {
	n := len(m.vars)
	q := make([]int, n)
	var best []int
	bestObj := math.Inf(1)

	var walk func(i int)
	walk = func(i int) {
		if i == n {
			if m.feasible(q, m.lo, m.hi) {
				if o := m.objective(q); o < bestObj-objTol {
					best, bestObj = append([]int(nil), q...), o
				}
			}
			return
		}
		for v := m.lo[i]; v <= m.hi[i]; v++ {
			q[i] = v
			walk(i + 1)
		}
	}
	walk(0)
	return best, bestObj
}

func TestBranchAndBoundMatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := newTestSolver()

	checked := 0
	for round := 0; round < 150; round++ {
		var items []domain.Item
		id := uint64(1)
		snacks, juices := 1+rng.Intn(3), rng.Intn(3)
		stockSnack, stockJuice := 0, 0
		for i := 0; i < snacks+juices; i++ {
			cost := decimal.NewFromInt(int64(500 + rng.Intn(5000))).Div(decimal.NewFromInt(100))
			stock := 1 + rng.Intn(5)
			it := domain.Item{ID: id, Category: domain.CategorySnack, UnitCost: cost, Stock: stock}
			if i >= snacks {
				it.Category = domain.CategoryJuice
				stockJuice += stock
			} else {
				stockSnack += stock
			}
			items = append(items, it)
			id++
		}

		req := domain.BundleRequest{
			SnackCount:   1 + rng.Intn(stockSnack),
			TargetMargin: d("0.38"),
		}
		if juices > 0 {
			req.JuiceCount = 1 + rng.Intn(stockJuice)
		}
		for _, it := range items {
			if rng.Intn(4) == 0 {
				req.Favorites = append(req.Favorites, it.ID)
			}
		}
		total := req.SnackCount + req.JuiceCount
		req.SellingPrice = decimal.NewFromInt(int64(total * (15 + rng.Intn(60))))

		pool := candidatePool(items, req)
		m, err := buildModel(pool, req)
		if err != nil {
			continue
		}
		ceiling := req.SellingPrice.Mul(d("0.62"))
		m.enforce, m.budget, m.budgetF = true, ceiling, ceiling.InexactFloat64()
		want, wantObj := bruteForce(m)

		res, err := s.Solve(context.Background(), items, req, EnforceMargin)
		if want == nil {
			assert.ErrorIs(t, err, domain.ErrInfeasible, "round %d", round)
			continue
		}
		require.NoError(t, err, "round %d", round)

		got := make([]int, len(m.vars))
		for i, v := range m.vars {
			got[i] = res.Quantities[v.item.ID]
		}
		assert.True(t, m.feasible(got, m.lo, m.hi), "round %d infeasible result %v", round, got)
		assert.InDelta(t, wantObj, m.objective(got), 1e-6, "round %d", round)
		checked++
	}
	assert.Greater(t, checked, 50)
}
