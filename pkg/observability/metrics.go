package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the pipeline's Prometheus instruments. A nil *Metrics is
// valid and records nothing, which keeps tests and the CLI free of a
// registry dependency.
type Metrics struct {
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	structureLoads      prometheus.Counter
	structureFailures   prometheus.Counter
	enrichmentBatches   prometheus.Counter
	enrichmentNodes     prometheus.Counter
	enrichmentFailures  prometheus.Counter
	layoutDuration      prometheus.Histogram
	websocketBroadcasts prometheus.Counter
}

// NewMetrics registers the pipeline instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "structure_cache_hits_total",
			Help: "Structure loads served from the local cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "structure_cache_misses_total",
			Help: "Structure loads that fell through to the remote source.",
		}),
		structureLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "structure_loads_total",
			Help: "Completed structure loads.",
		}),
		structureFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "structure_failures_total",
			Help: "Structure loads that failed with no usable cache.",
		}),
		enrichmentBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "enrichment_batches_total",
			Help: "Detail batches issued by the viewport controller.",
		}),
		enrichmentNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "enrichment_nodes_total",
			Help: "Nodes enriched across all batches.",
		}),
		enrichmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "enrichment_failures_total",
			Help: "Detail batches that failed and were left for retry.",
		}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shajara", Name: "layout_duration_seconds",
			Help:    "Wall time of a full layout pass.",
			Buckets: prometheus.DefBuckets,
		}),
		websocketBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shajara", Name: "websocket_broadcasts_total",
			Help: "Enrichment deltas pushed to websocket subscribers.",
		}),
	}

	reg.MustRegister(
		m.cacheHits, m.cacheMisses,
		m.structureLoads, m.structureFailures,
		m.enrichmentBatches, m.enrichmentNodes, m.enrichmentFailures,
		m.layoutDuration, m.websocketBroadcasts,
	)
	return m
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) StructureLoaded() {
	if m != nil {
		m.structureLoads.Inc()
	}
}

func (m *Metrics) StructureFailed() {
	if m != nil {
		m.structureFailures.Inc()
	}
}

func (m *Metrics) EnrichmentBatch(nodes int) {
	if m != nil {
		m.enrichmentBatches.Inc()
		m.enrichmentNodes.Add(float64(nodes))
	}
}

func (m *Metrics) EnrichmentFailed() {
	if m != nil {
		m.enrichmentFailures.Inc()
	}
}

func (m *Metrics) ObserveLayout(d time.Duration) {
	if m != nil {
		m.layoutDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) WebsocketBroadcast() {
	if m != nil {
		m.websocketBroadcasts.Inc()
	}
}
