package telemetry

import "github.com/prometheus/client_golang/prometheus"

// HTTPRequestDuration records request duration by method, route, and status,
// mirroring the request/response cycle for every mounted handler.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "registry",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"method", "route", "status"},
)

// CacheLookupDuration records the symmetric cache-hit / cache-miss /
// uncached-baseline latency aggregates required by spec §4.7 and §8
// scenario 6, bucketed so avg_cached_hit and avg_uncached can both be read
// back from the histogram sums/counts.
var CacheLookupDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "registry",
		Subsystem: "cache",
		Name:      "lookup_duration_microseconds",
		Help:      "Cache lookup latency in microseconds, labeled by outcome.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 20000},
	},
	[]string{"outcome"}, // hit | miss | uncached
)

// RateLimitRejectedTotal counts requests denied by the sliding-window
// limiter, labeled by the endpoint bucket that rejected them.
var RateLimitRejectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "ratelimit",
		Name:      "rejected_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"bucket"},
)

// TransparencyAppendsTotal counts transparency-log entries appended, labeled
// by entry type (PackageSigned, SignatureVerified, SignatureRevoked).
var TransparencyAppendsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "transparency",
		Name:      "appends_total",
		Help:      "Total number of transparency log entries appended.",
	},
	[]string{"entry_type"},
)

// MultisigTransitionsTotal counts deploy proposal state transitions.
var MultisigTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "multisig",
		Name:      "transitions_total",
		Help:      "Total number of deploy proposal state transitions.",
	},
	[]string{"to_status"},
)

// RegressionSeverityTotal counts test runs by detected severity.
var RegressionSeverityTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "regression",
		Name:      "severity_total",
		Help:      "Total number of test runs by regression severity.",
	},
	[]string{"severity"},
)

// CapacityAlertsTotal counts capacity alerts generated by resource and
// severity, consumed by pkg/notify's fan-out threshold.
var CapacityAlertsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "registry",
		Subsystem: "capacity",
		Name:      "alerts_total",
		Help:      "Total number of capacity alerts generated, by resource and severity.",
	},
	[]string{"resource", "severity"},
)

// AuditScoreGauge tracks the most recently computed overall audit score per
// contract, used for alerting on badge regressions.
var AuditScoreGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "registry",
		Subsystem: "audit",
		Name:      "overall_score",
		Help:      "Most recent overall audit score per contract.",
	},
	[]string{"contract_id"},
)

// All returns every registry-specific collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		CacheLookupDuration,
		RateLimitRejectedTotal,
		TransparencyAppendsTotal,
		MultisigTransitionsTotal,
		RegressionSeverityTotal,
		CapacityAlertsTotal,
		AuditScoreGauge,
	}
}

// NewRegistry builds a Prometheus registry with the Go/process collectors
// plus every collector in cs registered.
func NewRegistry(cs ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	for _, c := range cs {
		reg.MustRegister(c)
	}
	return reg
}
