// Package metrics defines the server's Prometheus metrics and the HTTP
// endpoint that exposes them. Metrics are registered with the default
// registry at package initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "microblog"

// RequestsTotal counts finished RPCs.
// Labels:
//   - method: the RPC name, e.g. "Feed"
//   - code: the gRPC status code, e.g. "OK", "NotFound"
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Total number of RPCs handled, by method and status code.",
	},
	[]string{"method", "code"},
)

// RequestDuration measures RPC latency.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_request_duration_seconds",
		Help:      "Duration of RPC handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// RateLimitedTotal counts sign-in attempts rejected by the limiter.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_rate_limited_total",
		Help:      "Total number of RPCs rejected by the sign-in rate limiter.",
	},
	[]string{"method"},
)

var UsersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "users_created_total",
	Help:      "Total number of identities registered.",
})

var MicropostsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "microposts_created_total",
	Help:      "Total number of microposts published.",
})

// SessionsStartedTotal counts issued sessions.
// Label:
//   - kind: "login", "signup" or "resume"
var SessionsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of sessions started, by how they were started.",
	},
	[]string{"kind"},
)
