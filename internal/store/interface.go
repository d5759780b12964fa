package store

import (
	"context"
	"time"

	"silverrail/internal/models"
)

// CatalogueStore abstracts catalogue storage backends.
type CatalogueStore interface {
	CreateCharacter(ctx context.Context, c *models.Character) error
	GetCharacter(ctx context.Context, id int64) (*models.Character, error)
	ListCharacters(ctx context.Context, filter CharacterFilter) ([]models.Character, error)
	UpdateCharacter(ctx context.Context, c *models.Character) error
	DeleteCharacter(ctx context.Context, id int64) (bool, error)
	CharacterExists(ctx context.Context, id int64) (bool, error)

	CreateAbility(ctx context.Context, a *models.Ability) error
	GetAbility(ctx context.Context, id int64) (*models.Ability, error)
	ListAbilities(ctx context.Context, characterID int64) ([]models.Ability, error)
	UpdateAbility(ctx context.Context, a *models.Ability) error
	DeleteAbility(ctx context.Context, id int64) (bool, error)

	CreateLightcone(ctx context.Context, l *models.Lightcone) error
	GetLightcone(ctx context.Context, id int64) (*models.Lightcone, error)
	ListLightcones(ctx context.Context, filter LightconeFilter) ([]models.Lightcone, error)
	UpdateLightcone(ctx context.Context, l *models.Lightcone) error
	DeleteLightcone(ctx context.Context, id int64) (bool, error)
	LightconeExists(ctx context.Context, id int64) (bool, error)

	CreateRelic(ctx context.Context, r *models.Relic) error
	GetRelic(ctx context.Context, id int64) (*models.Relic, error)
	GetRelicsByIDs(ctx context.Context, ids []int64) (map[int64]models.Relic, error)
	ListRelics(ctx context.Context, filter RelicFilter) ([]models.Relic, error)
	UpdateRelic(ctx context.Context, r *models.Relic) error
	DeleteRelic(ctx context.Context, id int64) (bool, error)

	CreateTeam(ctx context.Context, t *models.Team) error
	GetTeam(ctx context.Context, id int64) (*models.Team, error)
	ListTeams(ctx context.Context, ownerID string) ([]models.Team, error)
	UpdateTeam(ctx context.Context, t *models.Team) error
	DeleteTeam(ctx context.Context, id int64) (bool, error)

	ListStats(ctx context.Context, ownerType string, ownerID int64) ([]models.Stat, error)
	GetStat(ctx context.Context, id int64) (*models.Stat, error)
	UpsertStat(ctx context.Context, st *models.Stat) error
	UpdateStatValue(ctx context.Context, id int64, value float64) (bool, error)

	CountAttachmentRefs(ctx context.Context, table, column, key string, excludePK int64) (int, error)
	UpdateAttachmentHashes(ctx context.Context, table string, id int64, hashes, keys map[string]string) (bool, error)

	StoreInfo(ctx context.Context) (*StoreInfo, error)
	Ping(ctx context.Context) error
}

// AuthStore abstracts user and session storage.
type AuthStore interface {
	CountEnabledUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, username, email, passwordHash, role string, now time.Time) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserDisabled(ctx context.Context, username string, disabled bool, now time.Time) (*models.User, error)
	DeleteUser(ctx context.Context, username string) (bool, error)
	CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) error
	GetUserBySessionTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	RevokeSessionByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) error
	CleanupSessions(ctx context.Context, cutoff time.Time, dryRun bool) (*CleanupResult, error)
}

var (
	_ CatalogueStore = (*Store)(nil)
	_ AuthStore      = (*Store)(nil)
)
