package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"shajara/application/ports"
	"shajara/application/services"
	domainconfig "shajara/domain/config"
	"shajara/infrastructure/config"
	"shajara/infrastructure/persistence/sqlite"
	"shajara/infrastructure/remote/supabase"
	ws "shajara/interfaces/websocket"
	"shajara/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideRegistry creates the Prometheus registry with process collectors.
func ProvideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// ProvideMetrics registers the pipeline instruments.
func ProvideMetrics(registry *prometheus.Registry) *observability.Metrics {
	return observability.NewMetrics(registry)
}

// ProvideStructureCache opens the SQLite-backed structure cache.
func ProvideStructureCache(cfg *config.Config) (*sqlite.StructureCache, error) {
	return sqlite.Open(cfg.CachePath)
}

// ProvideRemoteSource creates the Supabase-backed data source.
func ProvideRemoteSource(cfg *config.Config, logger *zap.Logger) (*supabase.Source, error) {
	return supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.ProfilesTable, logger)
}

// ProvideTreeConfig maps the runtime configuration onto the pipeline
// constants, keeping the geometry defaults fixed.
func ProvideTreeConfig(cfg *config.Config) *domainconfig.TreeConfig {
	tc := domainconfig.DefaultTreeConfig()
	tc.ViewportMargin = cfg.ViewportMargin
	tc.EnrichDebounce = cfg.EnrichDebounce
	tc.EnrichBatchLimit = cfg.EnrichBatchLimit
	return tc
}

// ProvideStructureLoader creates the structure loader.
func ProvideStructureLoader(
	source ports.StructureSource,
	cache ports.StructureCache,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *services.StructureLoader {
	return services.NewStructureLoader(source, cache, cfg.SchemaVersion, logger, metrics)
}

// ProvideHub creates the websocket hub.
func ProvideHub(logger *zap.Logger, metrics *observability.Metrics) *ws.Hub {
	return ws.NewHub(logger, metrics)
}

// ProvideTreeSession wires the session with the hub as its delta sink.
func ProvideTreeSession(
	loader *services.StructureLoader,
	details ports.DetailSource,
	treeCfg *domainconfig.TreeConfig,
	hub *ws.Hub,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *services.TreeSession {
	return services.NewTreeSession(loader, details, treeCfg, logger, metrics, hub.BroadcastEnriched)
}
