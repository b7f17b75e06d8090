package allocation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	simplexTol  = 1e-10
	integralTol = 1e-6
)

// relax solves the LP relaxation of a node with the cost ceiling active.
//
// Only the free variables (lo < hi) enter the program, shifted to y = q − lo:
//
//	minimize  Σ obj·y
//	s.t.      y_j + s_j          = hi_j − lo_j
//	          Σ_{j∈category} y_j = required − Σ lo
//	          Σ cost·y + t       = budget − Σ cost·lo
//	          y, s, t >= 0
//
// ok is false whenever the simplex does not report an optimum; callers must
// not read that as infeasibility.
func (m *model) relax(lo, hi []int) (x []float64, obj float64, ok bool) {
	free := make([]int, 0, len(lo))
	pos := make(map[int]int, len(lo))
	for i := range lo {
		if lo[i] < hi[i] {
			pos[i] = len(free)
			free = append(free, i)
		}
	}
	nf := len(free)
	if nf == 0 {
		return nil, 0, false
	}

	type rowSpec struct {
		members []int
		rhs     float64
	}
	var catRows []rowSpec
	for _, row := range m.rows {
		spec := rowSpec{rhs: float64(row.required)}
		for _, i := range row.members {
			spec.rhs -= float64(lo[i])
			if _, ok := pos[i]; ok {
				spec.members = append(spec.members, i)
			}
		}
		if len(spec.members) == 0 {
			if spec.rhs != 0 {
				return nil, 0, false
			}
			continue
		}
		catRows = append(catRows, spec)
	}

	budget := m.budgetF
	for i := range lo {
		budget -= m.vars[i].costF * float64(lo[i])
	}
	if budget < 0 {
		if budget < -1e-9 {
			return nil, 0, false
		}
		budget = 0
	}

	rows := nf + len(catRows) + 1
	cols := 2*nf + 1
	A := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	c := make([]float64, cols)

	for p, i := range free {
		A.Set(p, p, 1)
		A.Set(p, nf+p, 1)
		b[p] = float64(hi[i] - lo[i])
		c[p] = m.vars[i].obj
	}
	for k, spec := range catRows {
		r := nf + k
		for _, i := range spec.members {
			A.Set(r, pos[i], 1)
		}
		b[r] = spec.rhs
	}
	last := rows - 1
	for p, i := range free {
		A.Set(last, p, m.vars[i].costF)
	}
	A.Set(last, cols-1, 1)
	b[last] = budget

	_, y, err := lp.Simplex(c, A, b, simplexTol, nil)
	if err != nil {
		return nil, 0, false
	}

	x = make([]float64, len(lo))
	for i := range lo {
		x[i] = float64(lo[i])
	}
	for p, i := range free {
		x[i] += y[p]
	}
	for i, v := range x {
		obj += m.vars[i].obj * v
	}
	return x, obj, true
}

// mostFractional picks the variable furthest from an integer, lowest index on
// ties. It returns -1 when x is integral.
func mostFractional(x []float64) int {
	best, bestDist := -1, integralTol
	for i, v := range x {
		f := v - math.Floor(v)
		dist := math.Min(f, 1-f)
		if dist > bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func roundPoint(x []float64, lo, hi []int) []int {
	q := make([]int, len(x))
	for i, v := range x {
		n := int(math.Round(v))
		q[i] = min(max(n, lo[i]), hi[i])
	}
	return q
}
