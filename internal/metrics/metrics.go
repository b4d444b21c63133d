// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "powerbill"

// ─── Billing ────────────────────────────────────────────────────────────────

// BillsCreated counts bills by category and kind ("bill" or "deposit").
var BillsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "billing",
	Name:      "bills_created_total",
	Help:      "Total bills created, deposits included.",
}, []string{"category", "kind"})

// BillsPaid counts Unpaid → Paid transitions.
var BillsPaid = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "billing",
	Name:      "bills_paid_total",
	Help:      "Total bills marked as paid.",
})

var FinesApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "billing",
	Name:      "fines_applied_total",
	Help:      "Total payments that attracted a late fine.",
})

var FineAmount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "billing",
	Name:      "fine_amount_total",
	Help:      "Sum of late fines charged.",
})

// Reminders counts due notices emitted by the reminder scanner, by notice kind.
var Reminders = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reminder",
	Name:      "notices_total",
	Help:      "Total due notices emitted.",
}, []string{"notice"})

// ─── Events ─────────────────────────────────────────────────────────────────

var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "published_total",
	Help:      "Bill events handed to the broker, by type and result.",
}, []string{"type", "result"})

var EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "consumed_total",
	Help:      "Bill events processed by the worker, by type and result.",
}, []string{"type", "result"})

// CircuitBreakerState is 0=closed, 1=open, 2=half-open.
var CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "circuit_breaker",
	Name:      "state",
	Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open).",
}, []string{"name"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by method, route pattern and status code.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// RateLimited counts requests rejected by the admin rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests rejected by rate limiting.",
})
