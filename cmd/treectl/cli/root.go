// Package cli implements the treectl admin tool: cache inspection and
// invalidation plus offline layout dumps, against the same configuration
// the api server uses.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shajara/infrastructure/config"
	"shajara/infrastructure/persistence/sqlite"
)

var cachePath string

var rootCmd = &cobra.Command{
	Use:   "treectl",
	Short: "Admin tooling for the shajara tree backend",
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "path to the structure cache database (default from config)")
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(layoutCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if cachePath != "" {
		cfg.CachePath = cachePath
	}
	return cfg, nil
}

func openCache() (*sqlite.StructureCache, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cache, err := sqlite.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache at %s: %w", cfg.CachePath, err)
	}
	return cache, cfg, nil
}
