package shell

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	outcomeHit           = "hit"
	outcomeMiss          = "miss"
	outcomeNetwork       = "network"
	outcomeCachedReplay  = "cached_replay"
	outcomeShellFallback = "shell_fallback"
	outcomeUnavailable   = "unavailable"
)

// Routing strategies.
const (
	strategyNetworkFirst = "network_first"
	strategyCacheFirst   = "cache_first"
	strategyPassthrough  = "passthrough"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "shell",
			Name:      "requests_total",
			Help:      "Shell requests by routing strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	cachedAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "shell",
			Name:      "cached_assets",
			Help:      "Entries held by each cache version",
		},
		[]string{"cache"},
	)
)
