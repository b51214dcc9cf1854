// Package metrics defines and registers all custom Prometheus metrics for
// the streeplijst backend. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry via promauto
// at package init; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streeplijst"

// ── Congressus metrics ────────────────────────────────────────────────────────

// UpstreamRequestsTotal counts individual HTTP requests issued to the
// Congressus API, including retried attempts and every page of a paginated
// call.
// Labels:
//   - version: upstream API version ("v20", "v30")
//   - method:  HTTP method
//   - status:  response status code, or "timeout" for attempts that never answered
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of HTTP requests issued to the Congressus API.",
	},
	[]string{"version", "method", "status"},
)

// UpstreamRequestDuration measures the wall time of single upstream
// attempts (not whole paginated calls).
// Label:
//   - version: upstream API version
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of individual Congressus API requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"version"},
)

// UpstreamTimeoutsTotal counts calls that exhausted their retry budget and
// were answered with the synthetic 408 result.
// Label:
//   - version: upstream API version
var UpstreamTimeoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_timeouts_total",
		Help:      "Total number of Congressus calls that exhausted all retries.",
	},
	[]string{"version"},
)

// ── Card reader metrics ───────────────────────────────────────────────────────

// CardEventsTotal counts card reader events as seen by the watcher.
// Label:
//   - event: "inserted", "removed", or "read_failed" for insertions whose
//     UID could not be read
var CardEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "card_events_total",
		Help:      "Total number of card reader events, by event kind.",
	},
	[]string{"event"},
)

// MonitorRestartsTotal counts unexpected card monitor terminations that the
// watcher supervisor recovered from.
var MonitorRestartsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "card_monitor_restarts_total",
		Help:      "Total number of card monitor restarts after unexpected failures.",
	},
)

// WebsocketClients tracks the number of currently connected websocket
// subscribers to the card presence channel.
var WebsocketClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Current number of connected card presence websocket clients.",
	},
)
