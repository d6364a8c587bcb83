package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the structure cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached structure snapshot, if any",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, cfg, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		st, ok, err := cache.Stat(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("cache is empty")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return err
		}
		if st.SchemaVersion != cfg.SchemaVersion {
			fmt.Fprintf(os.Stderr, "note: cached schema %q differs from configured %q; the server will treat this as a miss\n",
				st.SchemaVersion, cfg.SchemaVersion)
		}
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop every cached structure snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, _, err := openCache()
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Invalidate(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("cache invalidated")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
}
