package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slabgate_signals_total",
		Help: "The total number of trade signals processed",
	}, []string{"status", "side"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slabgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	MandateRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slabgate_mandate_rejects_total",
		Help: "Total mandate mint rejections",
	}, []string{"reason"})

	SignalRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slabgate_signal_rejects_total",
		Help: "Total signal execution rejections",
	}, []string{"reason"})

	MandatesMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slabgate_mandates_minted_total",
		Help: "Total mandates minted",
	})

	BridgeTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slabgate_bridge_transfers_total",
		Help: "Total bridge transfer attempts",
	}, []string{"route", "status"})
)
