// Package metrics provides Prometheus metrics for partnergate.
// Counters and histograms for tool dispatch, failure taxonomy codes, and
// the SSE connection registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Dispatch ───────────────────────────────────────────────────────────────

// ToolCalls tracks tool invocations by tool name.
var ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "partnergate",
	Name:      "tool_calls_total",
	Help:      "Total tool invocations.",
}, []string{"tool"})

// ToolFailures tracks classified failures by tool and taxonomy code.
var ToolFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "partnergate",
	Name:      "tool_failures_total",
	Help:      "Total failed tool invocations by taxonomy code.",
}, []string{"tool", "code"})

// DispatchLatency tracks end-to-end dispatch duration in seconds.
var DispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "partnergate",
	Name:      "dispatch_latency_seconds",
	Help:      "Tool dispatch duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"tool"})

// ─── Origin Guard ───────────────────────────────────────────────────────────

// OriginsBlocked tracks requests rejected by the origin allow-list.
var OriginsBlocked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "partnergate",
	Name:      "origins_blocked_total",
	Help:      "Total requests rejected by the origin allow-list.",
})

// ─── SSE ────────────────────────────────────────────────────────────────────

// SSEConnections tracks currently open SSE connections.
var SSEConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "partnergate",
	Name:      "sse_connections",
	Help:      "Number of currently open SSE connections.",
})

// SSEEventsSent tracks events pushed over SSE by event name.
var SSEEventsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "partnergate",
	Name:      "sse_events_sent_total",
	Help:      "Total SSE events sent.",
}, []string{"event"})
