package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"silverrail/internal/models"
)

// RelicFilter narrows ListRelics.
type RelicFilter struct {
	Slot    string
	SetName string
	Limit   int
	Offset  int
}

const relicColumns = "id, name, set_name, effect, slot, icon, icon_hash, set_icon, created_at, updated_at"

// CreateRelic inserts a relic.
func (s *Store) CreateRelic(ctx context.Context, r *models.Relic) error {
	if r == nil {
		return fmt.Errorf("relic is required")
	}
	stampCreated(&r.CreatedAt, &r.UpdatedAt)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO relics (name, set_name, effect, slot, icon, icon_hash, set_icon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Name, r.SetName, r.Effect, r.Slot, r.Icon, r.IconHash, r.SetIcon, formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// GetRelic returns a relic by id, or nil when it does not exist.
func (s *Store) GetRelic(ctx context.Context, id int64) (*models.Relic, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+relicColumns+" FROM relics WHERE id = ?", id)
	return scanRelic(row)
}

// ListRelics returns relics ordered by id.
func (s *Store) ListRelics(ctx context.Context, filter RelicFilter) ([]models.Relic, error) {
	where := []string{}
	args := []any{}
	if filter.Slot != "" {
		where = append(where, "slot = ?")
		args = append(args, filter.Slot)
	}
	if filter.SetName != "" {
		where = append(where, "set_name = ?")
		args = append(args, filter.SetName)
	}
	query := "SELECT " + relicColumns + " FROM relics"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	query, args = appendPage(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Relic, 0)
	for rows.Next() {
		r, err := scanRelic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// GetRelicsByIDs returns the relics with the given ids keyed by id.
func (s *Store) GetRelicsByIDs(ctx context.Context, ids []int64) (map[int64]models.Relic, error) {
	out := make(map[int64]models.Relic, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+relicColumns+" FROM relics WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRelic(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = *r
	}
	return out, rows.Err()
}

// UpdateRelic writes every mutable column of r.
func (s *Store) UpdateRelic(ctx context.Context, r *models.Relic) error {
	if r == nil || r.ID == 0 {
		return fmt.Errorf("relic id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE relics
		SET name = ?, set_name = ?, effect = ?, slot = ?, icon = ?, icon_hash = ?, set_icon = ?, updated_at = ?
		WHERE id = ?
	`, r.Name, r.SetName, r.Effect, r.Slot, r.Icon, r.IconHash, r.SetIcon, formatTime(r.UpdatedAt), r.ID)
	return err
}

// DeleteRelic removes a relic; team members wearing it lose it.
func (s *Store) DeleteRelic(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM relics WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanRelic(scanner interface {
	Scan(dest ...any) error
}) (*models.Relic, error) {
	var r models.Relic
	var createdAt, updatedAt string
	if err := scanner.Scan(&r.ID, &r.Name, &r.SetName, &r.Effect, &r.Slot, &r.Icon, &r.IconHash, &r.SetIcon, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
