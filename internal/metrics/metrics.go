// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "memefactory"

var (
	SessionConnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "connects_total",
		Help:      "Wallet connect attempts by result.",
	}, []string{"result"})

	SessionConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "connected",
		Help:      "1 while a wallet session is connected.",
	})

	NetworkSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "network_switches_total",
		Help:      "Target chain checks by outcome (already, switched, added, failed).",
	}, []string{"outcome"})

	TokenLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "loads_total",
		Help:      "Token list loads by result (ok, superseded, error).",
	}, []string{"result"})

	TokenLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "load_duration_seconds",
		Help:      "Time taken by a token list load.",
		Buckets:   prometheus.DefBuckets,
	})

	MetadataFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "metadata_failures_total",
		Help:      "Per-token metadata fetches that failed during a load.",
	})

	TokensCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "creations_total",
		Help:      "createToken submissions by result.",
	}, []string{"result"})

	RegistrySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "tokens",
		Help:      "Tokens currently held by the registry.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
)
