package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"silverrail/internal/api"
	"silverrail/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database, media, and record counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("db_path: %s\n", resp.DBPath)
				_ = writePlain("media_root: %s\n", resp.MediaRoot)
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("record_types: %s\n", strings.Join(resp.RecordTypes, ", "))

				names := make([]string, 0, len(resp.Counts))
				for name := range resp.Counts {
					names = append(names, name)
				}
				sort.Strings(names)
				_ = writePlain("counts:\n")
				for _, name := range names {
					_ = writePlain("  %s: %d\n", name, resp.Counts[name])
				}
				return nil
			})
		},
	}
	return cmd
}
