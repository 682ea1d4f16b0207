// Package metrics exposes the Prometheus collectors for the world-state
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps every Prometheus collector the service updates.
type Registry struct {
	World  worldGauges
	Ingest ingestCounters
	Watch  watchMetrics
}

type worldGauges struct {
	ActivePlayers  prometheus.Gauge
	ActiveGroups   prometheus.Gauge
	WatchGroupSize prometheus.Gauge
}

type ingestCounters struct {
	SamplesIngested prometheus.Counter
	BatchesIngested prometheus.Counter
	IDMismatches    prometheus.Counter
	PlayersEvicted  prometheus.Counter
	FeedConnected   prometheus.Gauge
}

type watchMetrics struct {
	QueryLatency prometheus.Histogram
}

// NewRegistry creates every collector used by the world-state service.
func NewRegistry() *Registry {
	return &Registry{
		World: worldGauges{
			ActivePlayers: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "zwift_watcher_players_active",
				Help: "Number of players currently tracked in the world.",
			}),
			ActiveGroups: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "zwift_watcher_groups_active",
				Help: "Number of distinct group ids currently indexed, including empty groups.",
			}),
			WatchGroupSize: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "zwift_watcher_watch_group_size",
				Help: "Number of player ids currently in the watch group.",
			}),
		},
		Ingest: ingestCounters{
			SamplesIngested: promauto.NewCounter(prometheus.CounterOpts{
				Name: "zwift_watcher_samples_ingested_total",
				Help: "Total number of player samples successfully ingested.",
			}),
			BatchesIngested: promauto.NewCounter(prometheus.CounterOpts{
				Name: "zwift_watcher_batches_ingested_total",
				Help: "Total number of sample batches processed.",
			}),
			IDMismatches: promauto.NewCounter(prometheus.CounterOpts{
				Name: "zwift_watcher_id_mismatch_total",
				Help: "Total number of samples dropped due to a player id mismatch.",
			}),
			PlayersEvicted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "zwift_watcher_players_evicted_total",
				Help: "Total number of players removed by the staleness eviction sweep.",
			}),
			FeedConnected: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "zwift_watcher_feed_connected",
				Help: "1 if the live WebSocket sample feed is currently connected, else 0.",
			}),
		},
		Watch: watchMetrics{
			QueryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "zwift_watcher_watch_query_duration_seconds",
				Help:    "Latency of the watch-group snapshot query, including time spent waiting for the world lock.",
				Buckets: prometheus.DefBuckets,
			}),
		},
	}
}

// Handler returns an HTTP handler exposing Prometheus metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveWatchQuery records how long a watch-snapshot query took, including
// the time spent waiting for and holding the world lock.
func (r *Registry) ObserveWatchQuery(d time.Duration) {
	r.Watch.QueryLatency.Observe(d.Seconds())
}
