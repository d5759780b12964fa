package store

import (
	"context"
	"database/sql"
	"fmt"

	"silverrail/internal/models"
)

const abilityColumns = `id, character_id, name, type, energy_cost, skill_point_cost, energy_regeneration,
	break_effect, targeting, icon, icon_hash, created_at, updated_at`

// CreateAbility inserts an ability.
func (s *Store) CreateAbility(ctx context.Context, a *models.Ability) error {
	if a == nil {
		return fmt.Errorf("ability is required")
	}
	stampCreated(&a.CreatedAt, &a.UpdatedAt)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO abilities (
			character_id, name, type, energy_cost, skill_point_cost, energy_regeneration,
			break_effect, targeting, icon, icon_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.CharacterID,
		a.Name,
		a.Type,
		nullInt(a.EnergyCost),
		nullInt(a.SkillPointCost),
		nullInt(a.EnergyRegeneration),
		nullInt(a.BreakEffect),
		a.Targeting,
		a.Icon,
		a.IconHash,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// GetAbility returns an ability by id, or nil when it does not exist.
func (s *Store) GetAbility(ctx context.Context, id int64) (*models.Ability, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+abilityColumns+" FROM abilities WHERE id = ?", id)
	return scanAbility(row)
}

// ListAbilities returns abilities of one character, or of every character
// when characterID is 0.
func (s *Store) ListAbilities(ctx context.Context, characterID int64) ([]models.Ability, error) {
	query := "SELECT " + abilityColumns + " FROM abilities"
	args := []any{}
	if characterID > 0 {
		query += " WHERE character_id = ?"
		args = append(args, characterID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Ability, 0)
	for rows.Next() {
		a, err := scanAbility(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateAbility writes every mutable column of a.
func (s *Store) UpdateAbility(ctx context.Context, a *models.Ability) error {
	if a == nil || a.ID == 0 {
		return fmt.Errorf("ability id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE abilities
		SET character_id = ?, name = ?, type = ?, energy_cost = ?, skill_point_cost = ?,
			energy_regeneration = ?, break_effect = ?, targeting = ?, icon = ?, icon_hash = ?, updated_at = ?
		WHERE id = ?
	`,
		a.CharacterID,
		a.Name,
		a.Type,
		nullInt(a.EnergyCost),
		nullInt(a.SkillPointCost),
		nullInt(a.EnergyRegeneration),
		nullInt(a.BreakEffect),
		a.Targeting,
		a.Icon,
		a.IconHash,
		formatTime(a.UpdatedAt),
		a.ID,
	)
	return err
}

// DeleteAbility removes one ability.
func (s *Store) DeleteAbility(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM abilities WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanAbility(scanner interface {
	Scan(dest ...any) error
}) (*models.Ability, error) {
	var a models.Ability
	var energyCost, skillPointCost, energyRegen, breakEffect sql.NullInt64
	var createdAt, updatedAt string
	if err := scanner.Scan(
		&a.ID,
		&a.CharacterID,
		&a.Name,
		&a.Type,
		&energyCost,
		&skillPointCost,
		&energyRegen,
		&breakEffect,
		&a.Targeting,
		&a.Icon,
		&a.IconHash,
		&createdAt,
		&updatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.EnergyCost = intPtr(energyCost)
	a.SkillPointCost = intPtr(skillPointCost)
	a.EnergyRegeneration = intPtr(energyRegen)
	a.BreakEffect = intPtr(breakEffect)

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
