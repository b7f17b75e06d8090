package allocation

import (
	"fmt"
	"sort"

	"justEatMore/domain"

	"github.com/shopspring/decimal"
)

const (
	varietyCapSnack  = 3
	varietyCapJuice  = 2
	dynamicCapFloor  = 4
	dynamicCapBuffer = 4
	favoriteBoost    = 2

	// penaltyShare of the mean unit cost is charged per non-favorite unit.
	penaltyShare = 0.01
)

type variable struct {
	item     domain.Item
	favorite bool
	cost     decimal.Decimal
	obj      float64
	costF    float64
}

type categoryRow struct {
	category domain.Category
	required int
	members  []int
	// members ordered by objective and by raw cost, ties on pool order
	byObj  []int
	byCost []int
}

// model is the integer program for one solve: one variable per candidate,
// an exact-count row per category and an optional cost ceiling.
type model struct {
	vars    []variable
	rows    []categoryRow
	lo, hi  []int
	enforce bool
	budget  decimal.Decimal
	budgetF float64
}

func varietyCap(c domain.Category) int {
	if c == domain.CategoryJuice {
		return varietyCapJuice
	}
	return varietyCapSnack
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// buildModel sets bounds and objective weights for the pool. Variety mode (no
// favorite in the pool) caps regular items small so quantity spreads; with
// favorites every item shares the dynamic cap.
func buildModel(pool []domain.Item, req domain.BundleRequest) (*model, error) {
	favSet := make(map[uint64]struct{}, len(req.Favorites))
	for _, id := range req.Favorites {
		favSet[id] = struct{}{}
	}

	m := &model{
		vars: make([]variable, len(pool)),
		lo:   make([]int, len(pool)),
		hi:   make([]int, len(pool)),
	}

	favInPool := 0
	total := decimal.Zero
	for i, it := range pool {
		if it.UnitCost.IsNegative() {
			return nil, domain.InvalidInput("unit_cost", fmt.Sprintf("item %d has a negative unit cost", it.ID))
		}
		_, fav := favSet[it.ID]
		if fav {
			favInPool++
		}
		m.vars[i] = variable{item: it, favorite: fav, cost: it.UnitCost, costF: it.UnitCost.InexactFloat64()}
		total = total.Add(it.UnitCost)
	}

	penalty := penaltyShare
	if len(pool) > 0 {
		if mean := total.Div(decimal.NewFromInt(int64(len(pool)))).InexactFloat64(); mean > 0 {
			penalty = mean * penaltyShare
		}
	}
	for i := range m.vars {
		m.vars[i].obj = m.vars[i].costF
		if !m.vars[i].favorite {
			m.vars[i].obj += penalty
		}
	}

	variety := favInPool == 0
	for _, c := range domain.Categories {
		need := req.Required(c)
		if need <= 0 {
			continue
		}
		row := categoryRow{category: c, required: need}
		for i, v := range m.vars {
			if v.item.Category == c {
				row.members = append(row.members, i)
			}
		}
		if err := m.bound(&row, req.IgnoreStock, variety); err != nil {
			return nil, err
		}
		row.byObj = m.order(row.members, func(i int) float64 { return m.vars[i].obj })
		row.byCost = m.order(row.members, func(i int) float64 { return m.vars[i].costF })
		m.rows = append(m.rows, row)
	}

	return m, nil
}

func (m *model) bound(row *categoryRow, ignoreStock, variety bool) error {
	n, need := len(row.members), row.required

	favs := 0
	for _, i := range row.members {
		if m.vars[i].favorite {
			favs++
		}
	}
	if favs > need {
		return &domain.ShortfallError{
			Category: row.category,
			Need:     need,
			Have:     favs,
			Reason: fmt.Sprintf("%d favorite %s selected but the bundle holds only %d",
				favs, row.category.Plural(), need),
		}
	}

	dynamic := max(dynamicCapFloor, ceilDiv(need, n)+dynamicCapBuffer)
	regular := dynamic
	if variety {
		regular = varietyCap(row.category)
		if regular*n < need {
			regular = ceilDiv(need, n)
		}
	}
	boost := favs > 0 && need >= favs*favoriteBoost+2

	sumLo, sumHi := 0, 0
	for _, i := range row.members {
		v := m.vars[i]
		hi := regular
		if v.favorite {
			hi = dynamic
		}
		if !ignoreStock && v.item.Stock < hi {
			hi = v.item.Stock
		}

		lo := 0
		if v.favorite {
			lo = 1
			if boost && (ignoreStock || v.item.Stock >= favoriteBoost) {
				lo = favoriteBoost
			}
		}
		if n < need && lo < 1 {
			lo = 1
		}

		m.lo[i], m.hi[i] = lo, hi
		sumLo += lo
		sumHi += hi
	}

	if sumHi < need {
		for _, i := range row.members {
			if ignoreStock {
				m.hi[i] = need
			} else {
				m.hi[i] = m.vars[i].item.Stock
			}
		}
	}

	// The favorite boost gives way when it would overfill the category.
	if sumLo > need {
		for _, i := range row.members {
			if m.lo[i] > 1 {
				m.lo[i] = 1
			}
		}
	}
	return nil
}

func (m *model) order(members []int, key func(int) float64) []int {
	out := append([]int(nil), members...)
	sort.SliceStable(out, func(a, b int) bool {
		ka, kb := key(out[a]), key(out[b])
		if ka != kb {
			return ka < kb
		}
		return out[a] < out[b]
	})
	return out
}

// fill returns the cheapest integer point inside lo/hi under the given
// per-category ordering. The second result is false when a category count is
// out of reach.
func (m *model) fill(lo, hi []int, byCost bool) ([]int, bool) {
	q := append([]int(nil), lo...)
	for _, row := range m.rows {
		rem := row.required
		for _, i := range row.members {
			rem -= lo[i]
		}
		if rem < 0 {
			return nil, false
		}
		order := row.byObj
		if byCost {
			order = row.byCost
		}
		for _, i := range order {
			if rem == 0 {
				break
			}
			add := min(rem, hi[i]-lo[i])
			q[i] += add
			rem -= add
		}
		if rem > 0 {
			return nil, false
		}
	}
	return q, true
}

func (m *model) objective(q []int) float64 {
	total := 0.0
	for i, n := range q {
		total += m.vars[i].obj * float64(n)
	}
	return total
}

func (m *model) cost(q []int) decimal.Decimal {
	total := decimal.Zero
	for i, n := range q {
		if n == 0 {
			continue
		}
		total = total.Add(m.vars[i].cost.Mul(decimal.NewFromInt(int64(n))))
	}
	return total
}

func (m *model) withinBudget(q []int) bool {
	return !m.enforce || m.cost(q).LessThanOrEqual(m.budget)
}

// feasible checks an integer point against every hard constraint.
func (m *model) feasible(q []int, lo, hi []int) bool {
	for i, n := range q {
		if n < lo[i] || n > hi[i] {
			return false
		}
	}
	for _, row := range m.rows {
		sum := 0
		for _, i := range row.members {
			sum += q[i]
		}
		if sum != row.required {
			return false
		}
	}
	return m.withinBudget(q)
}
