package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shajara/domain/config"
	"shajara/domain/tree"
	"shajara/infrastructure/remote/supabase"
)

var layoutFromRemote bool

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Run the layout engine outside the server",
}

var layoutDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Lay out a structure snapshot and print the result as JSON",
	Long: `Lays out the cached structure snapshot (or, with --remote, a freshly
fetched one) and prints nodes and connections as JSON. Useful for diffing
geometry between releases: identical input must produce identical output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, cfg, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		var structure []tree.PersonRecord
		if layoutFromRemote {
			source, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.ProfilesTable, zap.NewNop())
			if err != nil {
				return err
			}
			structure, err = source.FetchStructure(cmd.Context())
			if err != nil {
				return err
			}
		} else {
			records, ok, err := cache.Read(cmd.Context(), cfg.SchemaVersion)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no cached snapshot for schema %q; run with --remote or start the server once", cfg.SchemaVersion)
			}
			structure = records
		}

		result := tree.NewLayoutEngine(config.DefaultTreeConfig()).Compute(structure, false)
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(os.Stderr, "warning: %v\n", diag)
		}

		out := struct {
			Nodes       []tree.LayoutNode     `json:"nodes"`
			Connections []tree.ConnectionEdge `json:"connections"`
		}{result.Nodes, result.Connections}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	layoutDumpCmd.Flags().BoolVar(&layoutFromRemote, "remote", false, "fetch the snapshot from the remote source instead of the cache")
	layoutCmd.AddCommand(layoutDumpCmd)
}
