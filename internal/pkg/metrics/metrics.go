// Package metrics defines and registers the custom Prometheus metrics of the
// AI Content Explorer API. It is the single source of truth for metric names,
// labels and help strings.
//
// All metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ace"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthRequestsTotal counts register, login and refresh outcomes.
// Labels:
//   - operation: "register", "login" or "refresh"
//   - outcome: "ok", "rejected" or "conflict"
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of authentication operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// TokenRejectionsTotal counts bearer tokens refused by the access middleware.
// Label:
//   - reason: "missing", "expired" or "invalid"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of bearer tokens rejected by the access middleware.",
	},
	[]string{"reason"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// ProviderRequestDuration measures content provider tool calls.
// Labels:
//   - tool: the remote tool name, or "unknown" when none was selected
//   - outcome: "ok" or "error"
var ProviderRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of content provider tool calls.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	},
	[]string{"tool", "outcome"},
)

// ContentCacheTotal counts content cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var ContentCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_cache_total",
		Help:      "Total number of content cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// HistoryQueueDepth tracks pending history writes per recorder worker.
// Label:
//   - worker_id: numeric worker index
var HistoryQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_queue_depth",
		Help:      "Current number of history entries pending in each recorder worker channel.",
	},
	[]string{"worker_id"},
)

// HistoryWritesTotal counts history persistence attempts made by the recorder.
// Labels:
//   - kind: "search" or "image"
//   - outcome: "ok", "error" or "dropped"
var HistoryWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_writes_total",
		Help:      "Total number of history entries persisted by the recorder.",
	},
	[]string{"kind", "outcome"},
)
