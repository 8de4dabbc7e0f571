// Package metrics defines and registers all custom Prometheus metrics for the
// DataFlow console. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors register with the default Prometheus registry on import, so the
// console API /metrics endpoint exposes them without further wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dataflow"

// ── Backend client metrics ────────────────────────────────────────────────────

// BackendRequestsTotal counts requests issued to the DataFlow backend.
// Labels:
//   - route: the route template (e.g. "GET /scrape/{id}")
//   - outcome: "ok", "client_error", "server_error" or "transport_error"
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests issued to the backend, by route and outcome.",
	},
	[]string{"route", "outcome"},
)

// BackendRequestDuration measures backend round trips.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend requests including rate limiter wait.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route"},
)

// DatasetCacheTotal counts dataset detail cache lookups.
// Label:
//   - result: "hit" or "miss"
var DatasetCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dataset_cache_total",
		Help:      "Total number of dataset detail cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Scrape workflow metrics ───────────────────────────────────────────────────

// ScrapeSubmissionsTotal counts submission attempts.
// Label:
//   - outcome: "accepted", "duplicate" (id already tracked), "rejected" (local rule)
//     or "error" (backend/transport)
var ScrapeSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_submissions_total",
		Help:      "Total number of scrape submissions, by outcome.",
	},
	[]string{"outcome"},
)

// ScrapePollsTotal counts status polls.
// Label:
//   - result: the reported status, or "error" when the poll failed
var ScrapePollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_polls_total",
		Help:      "Total number of scrape status polls, by result.",
	},
	[]string{"result"},
)

// ScrapePollRetriesTotal counts polls rescheduled after a failure.
var ScrapePollRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_poll_retries_total",
		Help:      "Total number of scrape status polls retried after a failure.",
	},
)

// ScrapeOutcomesTotal counts tracked jobs reaching an end state.
// Label:
//   - outcome: "completed", "failed", "status_unavailable" or "cancelled"
var ScrapeOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_outcomes_total",
		Help:      "Total number of tracked scrape jobs that ended, by outcome.",
	},
	[]string{"outcome"},
)

// ScrapeJobsInFlight tracks jobs currently being polled.
var ScrapeJobsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scrape_jobs_in_flight",
		Help:      "Current number of scrape jobs being polled.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session state changes.
// Labels:
//   - to: "authenticated" or "anonymous"
//   - reason: "startup", "signin", "signup", "signout", "invalidated"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session state transitions.",
	},
	[]string{"to", "reason"},
)

// SubscriptionsTotal counts plan change attempts.
// Labels:
//   - plan: the target plan id
//   - outcome: "ok" or "error"
var SubscriptionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscriptions_total",
		Help:      "Total number of plan subscription attempts.",
	},
	[]string{"plan", "outcome"},
)
