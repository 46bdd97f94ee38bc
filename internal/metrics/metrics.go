// Package metrics registers the engine's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics holds the Prometheus metrics for the AMM engine.
type EngineMetrics struct {
	SwapsTotal        *prometheus.CounterVec
	SwapVolume        *prometheus.CounterVec
	SwapLatency       prometheus.Histogram
	SwapFeesCollected *prometheus.CounterVec

	LiquidityAdded   *prometheus.CounterVec
	LiquidityRemoved *prometheus.CounterVec

	PoolsTotal     prometheus.Gauge
	RewardsClaimed prometheus.Counter
	FeesWithdrawn  prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// NewEngineMetrics creates and registers the engine metrics (singleton).
func NewEngineMetrics() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = &EngineMetrics{
			SwapsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swaps_total",
					Help:      "Total number of swaps executed",
				},
				[]string{"pool_id", "asset_in", "status"},
			),
			SwapVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_volume_total",
					Help:      "Total swap input volume in base units",
				},
				[]string{"pool_id", "asset_in"},
			),
			SwapLatency: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_latency_seconds",
					Help:      "Swap execution latency in seconds",
					Buckets:   prometheus.DefBuckets,
				},
			),
			SwapFeesCollected: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "swap_fees_collected_total",
					Help:      "Total protocol fees collected in base units",
				},
				[]string{"pool_id"},
			),
			LiquidityAdded: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "liquidity_added_total",
					Help:      "Total liquidity shares minted",
				},
				[]string{"pool_id"},
			),
			LiquidityRemoved: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "liquidity_removed_total",
					Help:      "Total liquidity shares burned",
				},
				[]string{"pool_id"},
			),
			PoolsTotal: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "pools_total",
					Help:      "Number of pools in the registry",
				},
			),
			RewardsClaimed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "rewards_claimed_total",
					Help:      "Total reward units paid out",
				},
			),
			FeesWithdrawn: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "amm",
					Subsystem: "engine",
					Name:      "fees_withdrawn_total",
					Help:      "Total platform fees withdrawn by the owner",
				},
			),
		}
	})
	return engineMetrics
}
