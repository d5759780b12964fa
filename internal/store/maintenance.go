package store

import (
	"context"
	"time"
)

// StoreInfo summarizes database contents.
type StoreInfo struct {
	SchemaVersion int            `json:"schema_version"`
	Counts        map[string]int `json:"counts"`
}

// CleanupResult reports how many expired or revoked sessions were removed.
type CleanupResult struct {
	Count  int  `json:"count"`
	DryRun bool `json:"dry_run"`
}

var infoTables = []string{"characters", "abilities", "lightcones", "relics", "teams", "stats", "users"}

// StoreInfo returns the schema version and row counts per catalogue table.
func (s *Store) StoreInfo(ctx context.Context) (*StoreInfo, error) {
	version, err := currentVersion(s.db)
	if err != nil {
		return nil, err
	}
	info := &StoreInfo{SchemaVersion: version, Counts: make(map[string]int, len(infoTables))}
	for _, table := range infoTables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		info.Counts[table] = n
	}
	return info, nil
}

// CleanupSessions deletes sessions that expired or were revoked before cutoff.
func (s *Store) CleanupSessions(ctx context.Context, cutoff time.Time, dryRun bool) (*CleanupResult, error) {
	const where = "(expires_at <= ? OR (revoked_at IS NOT NULL AND revoked_at <= ?))"
	ts := formatTime(cutoff)

	if dryRun {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE "+where, ts, ts).Scan(&n); err != nil {
			return nil, err
		}
		return &CleanupResult{Count: n, DryRun: true}, nil
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE "+where, ts, ts)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	return &CleanupResult{Count: int(n)}, nil
}
