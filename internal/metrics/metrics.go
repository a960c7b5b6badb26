// Package metrics exposes Prometheus counters for sub-fetch outcomes and
// favorites refresh runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Name:      "subfetch_total",
		Help:      "Remote sub-fetches by source and outcome.",
	}, []string{"source", "outcome"})

	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Name:      "favorite_refresh_total",
		Help:      "Background favorite refreshes by outcome.",
	}, []string{"outcome"})
)

// ObserveSubFetch records one sub-fetch result.
func ObserveSubFetch(source string, err error) {
	subFetches.WithLabelValues(source, outcome(err)).Inc()
}

// ObserveRefresh records one background refresh of a favorite.
func ObserveRefresh(err error) {
	refreshes.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
