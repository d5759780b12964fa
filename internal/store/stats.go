package store

import (
	"context"
	"database/sql"
	"fmt"

	"silverrail/internal/models"
)

// ListStats returns the stats of one character or lightcone in catalogue order.
func (s *Store) ListStats(ctx context.Context, ownerType string, ownerID int64) ([]models.Stat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_type, owner_id, category, type, value
		FROM stats
		WHERE owner_type = ? AND owner_id = ?
		ORDER BY id ASC
	`, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Stat, 0)
	for rows.Next() {
		st, err := scanStat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// GetStat returns one stat row, or nil when it does not exist.
func (s *Store) GetStat(ctx context.Context, id int64) (*models.Stat, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, owner_type, owner_id, category, type, value FROM stats WHERE id = ?", id)
	return scanStat(row)
}

// UpsertStat sets the value of one stat type for an owner, creating the row
// when missing.
func (s *Store) UpsertStat(ctx context.Context, st *models.Stat) error {
	if st == nil {
		return fmt.Errorf("stat is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (owner_type, owner_id, category, type, value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_type, owner_id, type) DO UPDATE SET value = excluded.value
	`, st.OwnerType, st.OwnerID, st.Category, st.Type, st.Value)
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id FROM stats WHERE owner_type = ? AND owner_id = ? AND type = ?
	`, st.OwnerType, st.OwnerID, st.Type)
	return row.Scan(&st.ID)
}

// UpdateStatValue changes the value of one stat row.
func (s *Store) UpdateStatValue(ctx context.Context, id int64, value float64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE stats SET value = ? WHERE id = ?", value, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func insertStats(ctx context.Context, tx *sql.Tx, stats []models.Stat) error {
	for _, st := range stats {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO stats (owner_type, owner_id, category, type, value) VALUES (?, ?, ?, ?, ?)
		`, st.OwnerType, st.OwnerID, st.Category, st.Type, st.Value); err != nil {
			return err
		}
	}
	return nil
}

func scanStat(scanner interface {
	Scan(dest ...any) error
}) (*models.Stat, error) {
	var st models.Stat
	if err := scanner.Scan(&st.ID, &st.OwnerType, &st.OwnerID, &st.Category, &st.Type, &st.Value); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}
