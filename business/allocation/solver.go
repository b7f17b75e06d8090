// Package allocation assigns integer quantities to bundle items. It solves a
// small integer program by depth-first branch-and-bound over LP relaxations
// and never touches stock.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"justEatMore/business/margin"
	"justEatMore/domain"
	"justEatMore/pkg/logger"
	"justEatMore/pkg/metrics"

	"github.com/shopspring/decimal"
)

const (
	DefaultTimeout  = 5 * time.Second
	DefaultMaxNodes = 20000

	objTol = 1e-7
)

// Mode selects whether the cost ceiling is a hard constraint.
type Mode int

const (
	EnforceMargin Mode = iota
	RelaxMargin
)

func (m Mode) String() string {
	if m == EnforceMargin {
		return domain.PassMarginEnforced
	}
	return domain.PassMarginRelaxed
}

type Config struct {
	Timeout  time.Duration
	MaxNodes int
}

// Solver is stateless across calls and safe for concurrent use.
type Solver struct {
	timeout  time.Duration
	maxNodes int
}

func NewSolver(cfg Config) *Solver {
	s := &Solver{timeout: cfg.Timeout, maxNodes: cfg.MaxNodes}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.maxNodes <= 0 {
		s.maxNodes = DefaultMaxNodes
	}
	return s
}

// Solve allocates req over the inventory snapshot. items may contain any
// category and stock level; filtering happens here.
func (s *Solver) Solve(ctx context.Context, items []domain.Item, req domain.BundleRequest, mode Mode) (domain.AllocationResult, error) {
	start := time.Now()
	res, nodes, err := s.solve(ctx, items, req, mode)

	metrics.SolverDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	metrics.SolverNodes.Observe(float64(nodes))
	metrics.SolverOutcomes.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		logger.Debug("allocation pass failed", "pass", mode.String(), "nodes", nodes, "error", err.Error())
		return domain.AllocationResult{}, err
	}
	logger.Debug("allocation pass solved", "pass", mode.String(), "nodes", nodes, "total_cost", res.TotalCost.String())
	return res, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "optimal"
	case errors.Is(err, domain.ErrSolverTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrInfeasible):
		return "infeasible"
	}
	return "invalid"
}

func (s *Solver) solve(ctx context.Context, items []domain.Item, req domain.BundleRequest, mode Mode) (domain.AllocationResult, int, error) {
	if err := ctx.Err(); err != nil {
		return domain.AllocationResult{}, 0, fmt.Errorf("%w: %v", domain.ErrSolverTimeout, err)
	}
	if err := validateRequest(req); err != nil {
		return domain.AllocationResult{}, 0, err
	}

	var budget decimal.Decimal
	if mode == EnforceMargin {
		b, err := margin.MaxAllowedCost(req.SellingPrice, req.TargetMargin, req.PackagingCost)
		if err != nil {
			return domain.AllocationResult{}, 0, err
		}
		budget = b
	}

	pool := candidatePool(items, req)
	if err := preflight(pool, req); err != nil {
		return domain.AllocationResult{}, 0, err
	}

	m, err := buildModel(pool, req)
	if err != nil {
		return domain.AllocationResult{}, 0, err
	}
	m.enforce = mode == EnforceMargin
	m.budget = budget
	m.budgetF = budget.InexactFloat64()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q, nodes, err := s.branchAndBound(ctx, m)
	if err != nil {
		return domain.AllocationResult{}, nodes, err
	}

	return m.result(q, req), nodes, nil
}

type node struct {
	lo, hi []int
}

func (n node) with(i, lo, hi int) node {
	out := node{lo: append([]int(nil), n.lo...), hi: append([]int(nil), n.hi...)}
	out.lo[i], out.hi[i] = lo, hi
	return out
}

// branchAndBound explores nodes depth first, down branch before up branch.
// Every node is first bounded by the greedy fill, which is exact when the
// cost ceiling is slack; the LP relaxation only tightens the bound and picks
// the branching variable.
func (s *Solver) branchAndBound(ctx context.Context, m *model) ([]int, int, error) {
	stack := []node{{lo: m.lo, hi: m.hi}}
	var best []int
	bestObj := math.Inf(1)
	nodes := 0

	improve := func(q []int) {
		if o := m.objective(q); o < bestObj-objTol {
			best, bestObj = q, o
		}
	}

	var stopped error
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			stopped = err
			break
		}
		if nodes >= s.maxNodes {
			stopped = fmt.Errorf("node limit %d reached", s.maxNodes)
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		cheap, ok := m.fill(nd.lo, nd.hi, false)
		if !ok {
			continue
		}
		bound := m.objective(cheap)
		if bound >= bestObj-objTol {
			continue
		}
		if m.withinBudget(cheap) {
			improve(cheap)
			continue
		}

		// The ceiling binds. The cost-greedy point is the cheapest one in
		// the node, so if it misses the ceiling nothing else can hit it.
		frugal, _ := m.fill(nd.lo, nd.hi, true)
		if !m.withinBudget(frugal) {
			continue
		}
		improve(frugal)

		branch := -1
		if x, lpObj, ok := m.relax(nd.lo, nd.hi); ok {
			if lpObj-objTol > bound {
				bound = lpObj - objTol
			}
			if bound >= bestObj-objTol {
				continue
			}
			branch = mostFractional(x)
			if branch < 0 {
				if q := roundPoint(x, nd.lo, nd.hi); m.feasible(q, nd.lo, nd.hi) {
					improve(q)
					continue
				}
			} else {
				down := int(math.Floor(x[branch]))
				stack = append(stack,
					nd.with(branch, down+1, nd.hi[branch]),
					nd.with(branch, nd.lo[branch], down),
				)
				continue
			}
		}

		branch = splitVariable(nd)
		mid := (nd.lo[branch] + nd.hi[branch]) / 2
		stack = append(stack,
			nd.with(branch, mid+1, nd.hi[branch]),
			nd.with(branch, nd.lo[branch], mid),
		)
	}

	if best != nil {
		if stopped != nil {
			logger.Warn("allocation search stopped early, using best allocation found", "nodes", nodes, "reason", stopped.Error())
		}
		return best, nodes, nil
	}
	if stopped != nil {
		return nil, nodes, fmt.Errorf("%w after %d nodes: %v", domain.ErrSolverTimeout, nodes, stopped)
	}

	frugal, ok := m.fill(m.lo, m.hi, true)
	if !ok {
		return nil, nodes, fmt.Errorf("%w: bounds cannot reach the required counts", domain.ErrInfeasible)
	}
	return nil, nodes, fmt.Errorf("%w: cheapest allocation costs %s, ceiling is %s",
		domain.ErrInfeasible, m.cost(frugal).StringFixed(2), m.budget.StringFixed(2))
}

func splitVariable(nd node) int {
	for i := range nd.lo {
		if nd.lo[i] < nd.hi[i] {
			return i
		}
	}
	return 0
}

func (m *model) result(q []int, req domain.BundleRequest) domain.AllocationResult {
	quantities := make(map[uint64]int, len(q))
	for i, n := range q {
		if n > 0 {
			quantities[m.vars[i].item.ID] = n
		}
	}

	cost := m.cost(q)
	met := m.enforce
	if !met && req.SellingPrice.IsPositive() {
		if ceiling, err := margin.MaxAllowedCost(req.SellingPrice, req.TargetMargin, req.PackagingCost); err == nil {
			met = cost.LessThanOrEqual(ceiling)
		}
	}

	return domain.AllocationResult{
		Quantities:     quantities,
		TotalCost:      cost,
		AchievedMargin: margin.AchievedMargin(req.SellingPrice, cost.Add(req.PackagingCost)),
		MarginMet:      met,
	}
}
