package main

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"silverrail/internal/config"
	"silverrail/internal/store"

	_ "modernc.org/sqlite"
)

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect catalogue schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := migrationStatus(cfg.DBPath)
			if err != nil {
				return err
			}
			if status {
				if *jsonOutput {
					return writeJSON(before)
				}
				return writeMigrationStatus(before)
			}

			// store.Open applies pending migrations the same way srv does.
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}

			after, err := migrationStatus(cfg.DBPath)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(map[string]any{"applied": len(before.Pending), "status": after})
			}
			if len(before.Pending) == 0 {
				return writePlain("schema already at version %d\n", after.CurrentVersion)
			}
			return writePlain("applied %d migrations; schema now at version %d\n", len(before.Pending), after.CurrentVersion)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show pending migrations without applying them")
	return cmd
}

func migrationStatus(path string) (*store.MigrationStatus, error) {
	db, err := openRawDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return nil, fmt.Errorf("inspect migrations: %w", err)
	}
	return plan, nil
}

func writeMigrationStatus(plan *store.MigrationStatus) error {
	_ = writePlain("current_version: %d\n", plan.CurrentVersion)
	_ = writePlain("available_version: %d\n", plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		return writePlain("no pending migrations\n")
	}
	rows := make([][]string, 0, len(plan.Pending))
	for _, m := range plan.Pending {
		rows = append(rows, []string{intToString(m.Version), m.Description})
	}
	return writeTable([]string{"VERSION", "DESCRIPTION"}, rows)
}

func openRawDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return sql.Open("sqlite", u.String())
}
