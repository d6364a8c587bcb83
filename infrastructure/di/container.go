package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"shajara/application/services"
	"shajara/infrastructure/persistence/sqlite"
	"shajara/infrastructure/remote/supabase"
	ws "shajara/interfaces/websocket"
	"shajara/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Cache    *sqlite.StructureCache
	Source   *supabase.Source
	Loader   *services.StructureLoader
	Hub      *ws.Hub
	Session  *services.TreeSession
}

// Close releases everything the container owns, in reverse dependency
// order.
func (c *Container) Close() {
	if c.Session != nil {
		c.Session.Close()
	}
	if c.Hub != nil {
		c.Hub.Close()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("closing structure cache", zap.Error(err))
		}
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
