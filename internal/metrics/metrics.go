package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Backstage
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	WithdrawalsTotal      *prometheus.CounterVec
	WithdrawalAmount      prometheus.Histogram
	PayoutsTotal          prometheus.Counter
	TicketMessagesTotal   *prometheus.CounterVec
	ReleaseStatusChanges  *prometheus.CounterVec
	RealtimeSubscribers   prometheus.Gauge
	RealtimeDroppedEvents prometheus.Counter
	JobDuration           *prometheus.HistogramVec
}

var (
	registry     *MetricsRegistry
	registryOnce sync.Once
)

// NewMetricsRegistry returns the process-wide registry, creating it on first use.
// promauto registers with the default registerer, so metrics are created once.
func NewMetricsRegistry() *MetricsRegistry {
	registryOnce.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backstage_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backstage_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "backstage_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backstage_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backstage_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		WithdrawalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backstage_withdrawals_total",
				Help: "Withdrawal requests by resulting status",
			},
			[]string{"status"},
		),
		WithdrawalAmount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "backstage_withdrawal_amount",
				Help:    "Requested withdrawal amounts",
				Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
		PayoutsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backstage_payouts_total",
				Help: "Total payouts booked",
			},
		),
		TicketMessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backstage_ticket_messages_total",
				Help: "Support messages posted by side",
			},
			[]string{"side"},
		),
		ReleaseStatusChanges: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backstage_release_status_changes_total",
				Help: "Release status transitions by target status",
			},
			[]string{"status"},
		),
		RealtimeSubscribers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "backstage_realtime_subscribers",
				Help: "Current number of realtime subscriptions",
			},
		),
		RealtimeDroppedEvents: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "backstage_realtime_dropped_events_total",
				Help: "Events dropped because a subscriber buffer was full",
			},
		),
		JobDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backstage_job_duration_seconds",
				Help:    "Background job execution time in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"job_name"},
		),
	}
}
