package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"silverrail/internal/models"
)

// CharacterFilter narrows ListCharacters. Zero values match everything.
type CharacterFilter struct {
	Element string
	Path    string
	Rarity  int
	Limit   int
	Offset  int
}

const characterColumns = "id, name, element, path, rarity, lightcone_id, image, image_hash, created_at, updated_at"

// CreateCharacter inserts a character together with its default stats.
func (s *Store) CreateCharacter(ctx context.Context, c *models.Character) error {
	if c == nil {
		return fmt.Errorf("character is required")
	}
	stampCreated(&c.CreatedAt, &c.UpdatedAt)

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO characters (name, element, path, rarity, lightcone_id, image, image_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			c.Name,
			c.Element,
			c.Path,
			c.Rarity,
			nullInt64(c.LightconeID),
			c.Image,
			c.ImageHash,
			formatTime(c.CreatedAt),
			formatTime(c.UpdatedAt),
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		stats := models.DefaultStats()
		for i := range stats {
			stats[i].OwnerID = id
		}
		if err := insertStats(ctx, tx, stats); err != nil {
			return err
		}
		c.ID = id
		return nil
	})
}

// GetCharacter returns a character by id, or nil when it does not exist.
func (s *Store) GetCharacter(ctx context.Context, id int64) (*models.Character, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+characterColumns+" FROM characters WHERE id = ?", id)
	return scanCharacter(row)
}

// ListCharacters returns characters ordered by id.
func (s *Store) ListCharacters(ctx context.Context, filter CharacterFilter) ([]models.Character, error) {
	where := []string{}
	args := []any{}
	if filter.Element != "" {
		where = append(where, "element = ?")
		args = append(args, filter.Element)
	}
	if filter.Path != "" {
		where = append(where, "path = ?")
		args = append(args, filter.Path)
	}
	if filter.Rarity > 0 {
		where = append(where, "rarity = ?")
		args = append(args, filter.Rarity)
	}

	query := "SELECT " + characterColumns + " FROM characters"
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

	out := make([]models.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateCharacter writes every mutable column of c.
func (s *Store) UpdateCharacter(ctx context.Context, c *models.Character) error {
	if c == nil || c.ID == 0 {
		return fmt.Errorf("character id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE characters
		SET name = ?, element = ?, path = ?, rarity = ?, lightcone_id = ?, image = ?, image_hash = ?, updated_at = ?
		WHERE id = ?
	`,
		c.Name,
		c.Element,
		c.Path,
		c.Rarity,
		nullInt64(c.LightconeID),
		c.Image,
		c.ImageHash,
		formatTime(c.UpdatedAt),
		c.ID,
	)
	return err
}

// DeleteCharacter removes a character and its stats. Abilities and team
// memberships go with it through foreign keys.
func (s *Store) DeleteCharacter(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM stats WHERE owner_type = ? AND owner_id = ?", string(models.StatOwnerCharacter), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM characters WHERE id = ?", id)
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

// CharacterExists reports whether a character row exists.
func (s *Store) CharacterExists(ctx context.Context, id int64) (bool, error) {
	return s.rowExists(ctx, "characters", id)
}

func scanCharacter(scanner interface {
	Scan(dest ...any) error
}) (*models.Character, error) {
	var c models.Character
	var lightconeID sql.NullInt64
	var createdAt, updatedAt string
	if err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Element,
		&c.Path,
		&c.Rarity,
		&lightconeID,
		&c.Image,
		&c.ImageHash,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.LightconeID = int64Ptr(lightconeID)

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func appendPage(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}
	return query, args
}
