package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"silverrail/internal/api"
	"silverrail/internal/config"
)

func newAdminCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminRehashCmd(cfg, jsonOutput))
	cmd.AddCommand(newAdminCleanupSessionsCmd(cfg, jsonOutput))
	cmd.AddCommand(newAdminUserCmd(cfg, jsonOutput))
	return cmd
}

func newAdminRehashCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rehash",
		Short: "Fill missing file hashes on every record type that stores them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Rehash(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}

				rows := make([][]string, 0, len(resp.Types))
				for _, t := range resp.Types {
					if t.Skipped {
						rows = append(rows, []string{t.RecordType, "-", "-", "-", "skipped"})
						continue
					}
					rows = append(rows, []string{t.RecordType, intToString(t.Scanned), intToString(t.Updated), intToString(t.Failed), ""})
				}
				if err := writeTable([]string{"TYPE", "SCANNED", "UPDATED", "FAILED", "NOTE"}, rows); err != nil {
					return err
				}
				return writePlain("total: scanned=%d updated=%d failed=%d\n", resp.Scanned, resp.Updated, resp.Failed)
			})
		},
	}
}

func newAdminCleanupSessionsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		olderThan int
		dryRun    bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Remove expired or revoked login sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must be >= 0")
			}
			if !force && !dryRun {
				dryRun = true
			}

			return withClient(cfg, func(client *api.Client) error {
				req := api.CleanupSessionsRequest{OlderThanDays: olderThan, DryRun: dryRun}
				resp, err := client.CleanupSessions(cmd.Context(), req, force)
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}
				if resp.DryRun {
					return writePlain("dry run: %d sessions would be removed\n", resp.Count)
				}
				return writePlain("removed %d sessions\n", resp.Count)
			})
		},
	}

	cmd.Flags().IntVar(&olderThan, "older-than", 0, "only remove sessions that ended more than N days ago")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count sessions without deleting")
	cmd.Flags().BoolVar(&force, "force", false, "actually delete sessions (required for non-dry-run)")

	return cmd
}
