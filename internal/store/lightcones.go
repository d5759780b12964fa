package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"silverrail/internal/models"
)

// LightconeFilter narrows ListLightcones.
type LightconeFilter struct {
	Path   string
	Rarity int
	Limit  int
	Offset int
}

const lightconeColumns = "id, name, rarity, ability, path, image, image_hash, created_at, updated_at"

// CreateLightcone inserts a lightcone.
func (s *Store) CreateLightcone(ctx context.Context, l *models.Lightcone) error {
	if l == nil {
		return fmt.Errorf("lightcone is required")
	}
	stampCreated(&l.CreatedAt, &l.UpdatedAt)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO lightcones (name, rarity, ability, path, image, image_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.Name, l.Rarity, l.Ability, l.Path, l.Image, l.ImageHash, formatTime(l.CreatedAt), formatTime(l.UpdatedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// GetLightcone returns a lightcone by id, or nil when it does not exist.
func (s *Store) GetLightcone(ctx context.Context, id int64) (*models.Lightcone, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+lightconeColumns+" FROM lightcones WHERE id = ?", id)
	return scanLightcone(row)
}

// ListLightcones returns lightcones ordered by id.
func (s *Store) ListLightcones(ctx context.Context, filter LightconeFilter) ([]models.Lightcone, error) {
	where := []string{}
	args := []any{}
	if filter.Path != "" {
		where = append(where, "path = ?")
		args = append(args, filter.Path)
	}
	if filter.Rarity > 0 {
		where = append(where, "rarity = ?")
		args = append(args, filter.Rarity)
	}
	query := "SELECT " + lightconeColumns + " FROM lightcones"
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

	out := make([]models.Lightcone, 0)
	for rows.Next() {
		l, err := scanLightcone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// UpdateLightcone writes every mutable column of l.
func (s *Store) UpdateLightcone(ctx context.Context, l *models.Lightcone) error {
	if l == nil || l.ID == 0 {
		return fmt.Errorf("lightcone id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE lightcones
		SET name = ?, rarity = ?, ability = ?, path = ?, image = ?, image_hash = ?, updated_at = ?
		WHERE id = ?
	`, l.Name, l.Rarity, l.Ability, l.Path, l.Image, l.ImageHash, formatTime(l.UpdatedAt), l.ID)
	return err
}

// DeleteLightcone removes a lightcone and its stats. Characters and team
// members equipping it keep their rows with the reference cleared.
func (s *Store) DeleteLightcone(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM stats WHERE owner_type = ? AND owner_id = ?", string(models.StatOwnerLightcone), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM lightcones WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// LightconeExists reports whether a lightcone row exists.
func (s *Store) LightconeExists(ctx context.Context, id int64) (bool, error) {
	return s.rowExists(ctx, "lightcones", id)
}

func scanLightcone(scanner interface {
	Scan(dest ...any) error
}) (*models.Lightcone, error) {
	var l models.Lightcone
	var createdAt, updatedAt string
	if err := scanner.Scan(&l.ID, &l.Name, &l.Rarity, &l.Ability, &l.Path, &l.Image, &l.ImageHash, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
