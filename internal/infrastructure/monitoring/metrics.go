package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CustomerOperationsTotal *prometheus.CounterVec
	CustomersTotal          *prometheus.GaugeVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_service_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_service_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
		RateLimited: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "customer_service_http_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter.",
			},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_service_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		CustomerOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_service_operations_total",
				Help: "Total number of customer lifecycle operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		CustomersTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "customers_total",
				Help: "Number of stored customers per data state and active flag.",
			},
			[]string{"data_state", "active"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordRateLimited() {
	HTTP.RateLimited.Inc()
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCustomerOperation(operation, status string) {
	Business.CustomerOperationsTotal.WithLabelValues(operation, status).Inc()
}

// SetCustomerTotals replaces every customers_total series with the given snapshot.
func SetCustomerTotals(totals map[[2]string]float64) {
	Business.CustomersTotal.Reset()
	for labels, value := range totals {
		Business.CustomersTotal.WithLabelValues(labels[0], labels[1]).Set(value)
	}
}
