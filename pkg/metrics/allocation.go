package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Wall time of a single solver pass, labelled by pass
	SolverDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "allocation_solver_duration_seconds",
		Help:    "Latency of one allocation solver pass",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5},
	}, []string{"pass"})

	// Solver outcomes: optimal, infeasible, timeout
	SolverOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_solver_outcomes_total",
		Help: "Allocation solver results by outcome",
	}, []string{"outcome"})

	// Branch-and-bound nodes explored per solve
	SolverNodes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "allocation_solver_nodes",
		Help:    "Branch-and-bound nodes explored per solve",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	StockCommitFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_stock_commit_failures_total",
		Help: "Stock commits rejected for insufficient stock",
	})

	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})
)

func Init() {
	prometheus.MustRegister(
		SolverDuration,
		SolverOutcomes,
		SolverNodes,
		StockCommitFailures,
		OrderTransitions,
	)
}
