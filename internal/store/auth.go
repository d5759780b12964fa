package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"silverrail/internal/models"
)

const userSelect = `SELECT u.id, u.username, u.email, u.password_hash, u.role, u.disabled, u.created_at, u.updated_at FROM users u`

var errUsernameRequired = errors.New("username is required")

// CountEnabledUsers returns the number of users that may sign in.
func (s *Store) CountEnabledUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE disabled = 0").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateUser inserts a local account. Usernames and emails are stored
// lowercase.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash, role string, now time.Time) (*models.User, error) {
	user := &models.User{
		Username:     normalizeUsername(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	switch {
	case user.Username == "":
		return nil, errUsernameRequired
	case strings.TrimSpace(passwordHash) == "":
		return nil, fmt.Errorf("password hash is required")
	case role != models.RoleAdmin && role != models.RoleUser:
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	id, err := generateAuthID(userIDPrefix)
	if err != nil {
		return nil, err
	}
	user.ID = id

	stamp := formatTime(now)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, disabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		user.ID, user.Username, nullIfEmpty(user.Email), user.PasswordHash, user.Role, stamp, stamp,
	); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername returns nil when no user matches.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, nil
	}
	return s.findUser(ctx, " WHERE u.username = ?", username)
}

// GetUserByID returns nil when no user matches.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	return s.findUser(ctx, " WHERE u.id = ?", id)
}

// ListUsers returns every account ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, userSelect+" ORDER BY u.username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetUserDisabled flips the disabled flag and returns the updated user, or
// nil when the username is unknown.
func (s *Store) SetUserDisabled(ctx context.Context, username string, disabled bool, now time.Time) (*models.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return nil, errUsernameRequired
	}
	flag := 0
	if disabled {
		flag = 1
	}
	changed, err := s.execAffecting(ctx,
		"UPDATE users SET disabled = ?, updated_at = ? WHERE username = ?",
		flag, formatTime(now), username)
	if err != nil || !changed {
		return nil, err
	}
	return s.GetUserByUsername(ctx, username)
}

// DeleteUser removes an account and, through the foreign key, its sessions.
func (s *Store) DeleteUser(ctx context.Context, username string) (bool, error) {
	username = normalizeUsername(username)
	if username == "" {
		return false, errUsernameRequired
	}
	return s.execAffecting(ctx, "DELETE FROM users WHERE username = ?", username)
}

// CreateSession stores the digest of a session token for userID.
func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) error {
	userID, tokenHash = strings.TrimSpace(userID), strings.TrimSpace(tokenHash)
	if userID == "" || tokenHash == "" {
		return fmt.Errorf("session needs a user id and token hash")
	}
	id, err := generateAuthID(sessionIDPrefix)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, expires_at, revoked_at, created_at)
		 VALUES (?, ?, ?, ?, NULL, ?)`,
		id, userID, tokenHash, formatTime(expiresAt), formatTime(createdAt))
	return err
}

// GetUserBySessionTokenHash resolves a live session to its enabled owner.
// Revoked, expired, and disabled-user sessions resolve to nil.
func (s *Store) GetUserBySessionTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil, nil
	}
	return s.findUser(ctx,
		` JOIN sessions s ON s.user_id = u.id
		  WHERE s.token_hash = ? AND s.revoked_at IS NULL AND s.expires_at > ? AND u.disabled = 0`,
		tokenHash, formatTime(now))
}

// RevokeSessionByTokenHash is a no-op for unknown or already revoked tokens.
func (s *Store) RevokeSessionByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) error {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL",
		formatTime(revokedAt), tokenHash)
	return err
}

func (s *Store) findUser(ctx context.Context, clause string, args ...any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, userSelect+clause+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (s *Store) execAffecting(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*models.User, error) {
	var (
		user                 models.User
		email                sql.NullString
		disabled             int
		createdAt, updatedAt string
	)
	if err := scanner.Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.Role, &disabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	user.Email = email.String
	user.Disabled = disabled != 0

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
