package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	internalauth "silverrail/internal/auth"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

const (
	sessionCookieName = "silverrail_session"
	authTypeBearer    = "bearer"
	authTypeSession   = "session"
)

var defaultSessionTTL = 24 * time.Hour

var errInvalidCredentials = errors.New("invalid credentials")

// AuthService encapsulates account and session operations backed by the store.
type AuthService struct {
	store      store.AuthStore
	sessionTTL time.Duration
}

type authLoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func NewAuthService(authStore store.AuthStore) *AuthService {
	if authStore == nil {
		return nil
	}
	return &AuthService{store: authStore, sessionTTL: defaultSessionTTL}
}

// Register creates a regular user account.
func (a *AuthService) Register(ctx context.Context, username, email, password string, now time.Time) (*models.User, error) {
	return a.createUser(ctx, username, email, password, models.RoleUser, now)
}

// CreateUser creates an account with an explicit role.
func (a *AuthService) CreateUser(ctx context.Context, username, email, password, role string, now time.Time) (*models.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, badRequest(fmt.Errorf("role must be %q or %q", models.RoleUser, models.RoleAdmin))
	}
	return a.createUser(ctx, username, email, password, role, now)
}

func (a *AuthService) createUser(ctx context.Context, username, email, password, role string, now time.Time) (*models.User, error) {
	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequest(err)
	}
	email, err = internalauth.NormalizeEmail(email)
	if err != nil {
		return nil, badRequest(err)
	}
	if err := internalauth.ValidatePassword(password); err != nil {
		return nil, badRequest(err)
	}
	hash, err := internalauth.HashPassword(password)
	if err != nil {
		return nil, internalError(err)
	}

	user, err := a.store.CreateUser(ctx, normalized, email, hash, role, now)
	if err != nil {
		if isUniqueConstraint(err) {
			return nil, conflictCode(fmt.Errorf("username already exists"), ErrCodeUserExists)
		}
		return nil, storeFailure(err)
	}
	return user, nil
}

func (a *AuthService) Login(ctx context.Context, username, password string, now time.Time) (*authLoginResult, error) {
	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequest(err)
	}
	if strings.TrimSpace(password) == "" {
		return nil, badRequestCode(fmt.Errorf("password is required"), ErrCodeMissingRequired)
	}

	user, err := a.store.GetUserByUsername(ctx, normalized)
	if err != nil {
		return nil, storeFailure(err)
	}
	if user == nil || user.Disabled || !internalauth.VerifyPassword(user.PasswordHash, password) {
		return nil, errInvalidCredentials
	}

	token, err := internalauth.NewSessionToken()
	if err != nil {
		return nil, internalError(err)
	}
	expiresAt := now.Add(a.sessionTTL)
	if err := a.store.CreateSession(ctx, user.ID, internalauth.HashSessionToken(token), expiresAt, now); err != nil {
		return nil, storeFailure(err)
	}

	return &authLoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (a *AuthService) AuthenticateSessionToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return a.store.GetUserBySessionTokenHash(ctx, internalauth.HashSessionToken(token), now)
}

func (a *AuthService) RevokeSessionToken(ctx context.Context, token string, now time.Time) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return a.store.RevokeSessionByTokenHash(ctx, internalauth.HashSessionToken(token), now)
}

func (a *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return a.store.ListUsers(ctx)
}

func (a *AuthService) SetUserDisabled(ctx context.Context, username string, disabled bool, now time.Time) (*models.User, error) {
	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequest(err)
	}
	user, err := a.store.SetUserDisabled(ctx, normalized, disabled, now)
	if err != nil {
		return nil, storeFailure(err)
	}
	if user == nil {
		return nil, userNotFound(normalized)
	}
	return user, nil
}

func (a *AuthService) DeleteUser(ctx context.Context, username string) error {
	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return badRequest(err)
	}
	deleted, err := a.store.DeleteUser(ctx, normalized)
	if err != nil {
		return storeFailure(err)
	}
	if !deleted {
		return userNotFound(normalized)
	}
	return nil
}

// CleanupSessions removes sessions that expired or were revoked before
// cutoff.
func (a *AuthService) CleanupSessions(ctx context.Context, cutoff time.Time, dryRun bool) (*store.CleanupResult, error) {
	result, err := a.store.CleanupSessions(ctx, cutoff, dryRun)
	if err != nil {
		return nil, storeFailure(err)
	}
	return result, nil
}

func userNotFound(username string) error {
	return notFoundCode(fmt.Errorf("user %s not found", username), ErrCodeUserNotFound)
}
