//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"shajara/application/ports"
	"shajara/infrastructure/config"
	"shajara/infrastructure/persistence/sqlite"
	"shajara/infrastructure/remote/supabase"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideStructureCache,
	ProvideRemoteSource,
	ProvideTreeConfig,
	ProvideStructureLoader,
	ProvideHub,
	ProvideTreeSession,
	wire.Bind(new(ports.StructureCache), new(*sqlite.StructureCache)),
	wire.Bind(new(ports.StructureSource), new(*supabase.Source)),
	wire.Bind(new(ports.DetailSource), new(*supabase.Source)),
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
