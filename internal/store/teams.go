package store

import (
	"context"
	"database/sql"
	"fmt"

	"silverrail/internal/models"
)

// CreateTeam inserts a team with its members and their relics.
func (s *Store) CreateTeam(ctx context.Context, t *models.Team) error {
	if t == nil {
		return fmt.Errorf("team is required")
	}
	stampCreated(&t.CreatedAt, &t.UpdatedAt)

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO teams (name, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?)
		`, t.Name, t.OwnerID, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := insertMembers(ctx, tx, id, t.Members); err != nil {
			return err
		}
		t.ID = id
		return nil
	})
}

// GetTeam returns a team with members, or nil when it does not exist.
func (s *Store) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, owner_id, created_at, updated_at FROM teams WHERE id = ?", id)
	team, err := scanTeam(row)
	if err != nil || team == nil {
		return team, err
	}
	members, err := s.listMembers(ctx, []int64{team.ID})
	if err != nil {
		return nil, err
	}
	team.Members = members[team.ID]
	if team.Members == nil {
		team.Members = []models.TeamMember{}
	}
	return team, nil
}

// ListTeams returns teams of one owner, or every team when ownerID is empty.
func (s *Store) ListTeams(ctx context.Context, ownerID string) ([]models.Team, error) {
	query := "SELECT id, name, owner_id, created_at, updated_at FROM teams"
	args := []any{}
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		teams = append(teams, *team)
		ids = append(ids, team.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	members, err := s.listMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		teams[i].Members = members[teams[i].ID]
		if teams[i].Members == nil {
			teams[i].Members = []models.TeamMember{}
		}
	}
	return teams, nil
}

// UpdateTeam rewrites the team name and replaces its member list.
func (s *Store) UpdateTeam(ctx context.Context, t *models.Team) error {
	if t == nil || t.ID == 0 {
		return fmt.Errorf("team id is required")
	}
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE teams SET name = ?, updated_at = ? WHERE id = ?", t.Name, formatTime(t.UpdatedAt), t.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM team_members WHERE team_id = ?", t.ID); err != nil {
			return err
		}
		return insertMembers(ctx, tx, t.ID, t.Members)
	})
}

// DeleteTeam removes a team and its memberships.
func (s *Store) DeleteTeam(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM teams WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func insertMembers(ctx context.Context, tx *sql.Tx, teamID int64, members []models.TeamMember) error {
	for pos, m := range members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO team_members (team_id, position, character_id, lightcone_id) VALUES (?, ?, ?, ?)
		`, teamID, pos, m.CharacterID, nullInt64(m.LightconeID)); err != nil {
			return err
		}
		for _, relicID := range m.RelicIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO team_member_relics (team_id, character_id, relic_id) VALUES (?, ?, ?)
			`, teamID, m.CharacterID, relicID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) listMembers(ctx context.Context, teamIDs []int64) (map[int64][]models.TeamMember, error) {
	out := make(map[int64][]models.TeamMember, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(teamIDs))
	for i, id := range teamIDs {
		args[i] = id
	}
	in := placeholders(len(teamIDs))

	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, character_id, lightcone_id FROM team_members
		WHERE team_id IN (`+in+`)
		ORDER BY team_id ASC, position ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	type memberKey struct{ team, character int64 }
	index := map[memberKey]int{}
	for rows.Next() {
		var teamID, characterID int64
		var lightconeID sql.NullInt64
		if err := rows.Scan(&teamID, &characterID, &lightconeID); err != nil {
			rows.Close()
			return nil, err
		}
		index[memberKey{teamID, characterID}] = len(out[teamID])
		out[teamID] = append(out[teamID], models.TeamMember{CharacterID: characterID, LightconeID: int64Ptr(lightconeID)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	relicRows, err := s.db.QueryContext(ctx, `
		SELECT team_id, character_id, relic_id FROM team_member_relics
		WHERE team_id IN (`+in+`)
		ORDER BY relic_id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer relicRows.Close()
	for relicRows.Next() {
		var teamID, characterID, relicID int64
		if err := relicRows.Scan(&teamID, &characterID, &relicID); err != nil {
			return nil, err
		}
		pos, ok := index[memberKey{teamID, characterID}]
		if !ok {
			continue
		}
		out[teamID][pos].RelicIDs = append(out[teamID][pos].RelicIDs, relicID)
	}
	return out, relicRows.Err()
}

func scanTeam(scanner interface {
	Scan(dest ...any) error
}) (*models.Team, error) {
	var t models.Team
	var createdAt, updatedAt string
	if err := scanner.Scan(&t.ID, &t.Name, &t.OwnerID, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
