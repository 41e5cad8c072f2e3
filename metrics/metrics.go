package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ScansTotal counts completed scans by outcome.
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visibility",
		Subsystem: "scan",
		Name:      "scans_total",
		Help:      "Total number of visibility scans run, labeled by result.",
	}, []string{"result"})

	// ScanDurationSeconds is end-to-end time per scan, including the full
	// provider fan-out.
	ScanDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "visibility",
		Subsystem: "scan",
		Name:      "duration_seconds",
		Help:      "End-to-end time to run one visibility scan across all providers.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
	})

	// ProviderCallsTotal counts provider calls by provider and outcome.
	ProviderCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visibility",
		Subsystem: "provider",
		Name:      "calls_total",
		Help:      "Total number of provider calls, labeled by provider and result.",
	}, []string{"provider", "result"})

	// ProviderCallDurationSeconds is per-provider call latency.
	ProviderCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "visibility",
		Subsystem: "provider",
		Name:      "call_duration_seconds",
		Help:      "Time spent in a single provider call, labeled by provider.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 45, 60},
	}, []string{"provider"})

	// BillingExhaustedTotal counts billing-exhausted responses per provider.
	// These need operator attention, unlike transient call errors.
	BillingExhaustedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visibility",
		Subsystem: "provider",
		Name:      "billing_exhausted_total",
		Help:      "Total number of provider calls rejected for exhausted billing or quota.",
	}, []string{"provider"})

	// CreditsDebitedTotal counts credits debited from customer accounts.
	CreditsDebitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "visibility",
		Subsystem: "credits",
		Name:      "debited_total",
		Help:      "Total number of scan credits debited.",
	})

	// CreditsRefundedTotal counts credits refunded after scan errors.
	CreditsRefundedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "visibility",
		Subsystem: "credits",
		Name:      "refunded_total",
		Help:      "Total number of scan credits refunded.",
	})
)

// Register registers scan-engine metrics with the default Prometheus
// registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ScansTotal,
			ScanDurationSeconds,
			ProviderCallsTotal,
			ProviderCallDurationSeconds,
			BillingExhaustedTotal,
			CreditsDebitedTotal,
			CreditsRefundedTotal,
		)
	})
}
