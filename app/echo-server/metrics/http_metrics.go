package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	OrdersExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_expired_total",
		Help: "Approved orders cancelled by the payment deadline sweep",
	})

	once sync.Once
)

func Init() {
	once.Do(func() {
		prometheus.MustRegister(HTTPRequestDuration, OrdersExpired)
	})
}
