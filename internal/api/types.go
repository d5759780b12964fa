package api

import "silverrail/internal/models"

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// InfoResponse describes the running server.
type InfoResponse struct {
	DBPath        string         `json:"db_path"`
	MediaRoot     string         `json:"media_root,omitempty"`
	SchemaVersion int            `json:"schema_version"`
	Counts        map[string]int `json:"counts"`
	RecordTypes   []string       `json:"record_types"`
}

// CharacterCreateRequest creates a character. Image may reference an already
// stored key under "characters/".
type CharacterCreateRequest struct {
	Name        string `json:"name" yaml:"name"`
	Element     string `json:"element" yaml:"element"`
	Path        string `json:"path" yaml:"path"`
	Rarity      int    `json:"rarity" yaml:"rarity"`
	LightconeID *int64 `json:"lightcone_id,omitempty" yaml:"lightcone_id,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
}

// CharacterUpdateRequest patches a character. Nil fields are left alone;
// an empty Image clears the attachment.
type CharacterUpdateRequest struct {
	Name           *string `json:"name,omitempty"`
	Element        *string `json:"element,omitempty"`
	Path           *string `json:"path,omitempty"`
	Rarity         *int    `json:"rarity,omitempty"`
	LightconeID    *int64  `json:"lightcone_id,omitempty"`
	ClearLightcone bool    `json:"clear_lightcone,omitempty"`
	Image          *string `json:"image,omitempty"`
}

// CharacterResponse is a character with resolved media URLs.
type CharacterResponse struct {
	models.Character
	ImageURL  string             `json:"image_url,omitempty"`
	Abilities []AbilityResponse  `json:"abilities,omitempty"`
	Lightcone *LightconeResponse `json:"lightcone,omitempty"`
}

// AbilityCreateRequest creates an ability for a character.
type AbilityCreateRequest struct {
	CharacterID        int64  `json:"character_id" yaml:"character_id"`
	Name               string `json:"name" yaml:"name"`
	Type               string `json:"type" yaml:"type"`
	EnergyCost         *int   `json:"energy_cost,omitempty" yaml:"energy_cost,omitempty"`
	SkillPointCost     *int   `json:"skill_point_cost,omitempty" yaml:"skill_point_cost,omitempty"`
	EnergyRegeneration *int   `json:"energy_regeneration,omitempty" yaml:"energy_regeneration,omitempty"`
	BreakEffect        *int   `json:"break_effect,omitempty" yaml:"break_effect,omitempty"`
	Targeting          string `json:"targeting,omitempty" yaml:"targeting,omitempty"`
	Icon               string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// AbilityUpdateRequest patches an ability.
type AbilityUpdateRequest struct {
	Name               *string `json:"name,omitempty"`
	Type               *string `json:"type,omitempty"`
	EnergyCost         *int    `json:"energy_cost,omitempty"`
	SkillPointCost     *int    `json:"skill_point_cost,omitempty"`
	EnergyRegeneration *int    `json:"energy_regeneration,omitempty"`
	BreakEffect        *int    `json:"break_effect,omitempty"`
	Targeting          *string `json:"targeting,omitempty"`
	Icon               *string `json:"icon,omitempty"`
}

// AbilityResponse is an ability with its icon URL.
type AbilityResponse struct {
	models.Ability
	IconURL string `json:"icon_url,omitempty"`
}

// LightconeCreateRequest creates a lightcone.
type LightconeCreateRequest struct {
	Name    string `json:"name" yaml:"name"`
	Rarity  int    `json:"rarity" yaml:"rarity"`
	Ability string `json:"ability" yaml:"ability"`
	Path    string `json:"path" yaml:"path"`
	Image   string `json:"image,omitempty" yaml:"image,omitempty"`
}

// LightconeUpdateRequest patches a lightcone.
type LightconeUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Rarity  *int    `json:"rarity,omitempty"`
	Ability *string `json:"ability,omitempty"`
	Path    *string `json:"path,omitempty"`
	Image   *string `json:"image,omitempty"`
}

// LightconeResponse is a lightcone with its image URL.
type LightconeResponse struct {
	models.Lightcone
	ImageURL string `json:"image_url,omitempty"`
}

// RelicCreateRequest creates a relic piece.
type RelicCreateRequest struct {
	Name    string `json:"name" yaml:"name"`
	SetName string `json:"set_name" yaml:"set_name"`
	Effect  string `json:"effect" yaml:"effect"`
	Slot    string `json:"slot" yaml:"slot"`
	Icon    string `json:"icon,omitempty" yaml:"icon,omitempty"`
	SetIcon string `json:"set_icon,omitempty" yaml:"set_icon,omitempty"`
}

// RelicUpdateRequest patches a relic.
type RelicUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	SetName *string `json:"set_name,omitempty"`
	Effect  *string `json:"effect,omitempty"`
	Slot    *string `json:"slot,omitempty"`
	Icon    *string `json:"icon,omitempty"`
	SetIcon *string `json:"set_icon,omitempty"`
}

// RelicResponse is a relic with its icon URLs.
type RelicResponse struct {
	models.Relic
	IconURL    string `json:"icon_url,omitempty"`
	SetIconURL string `json:"set_icon_url,omitempty"`
}

// TeamMemberRequest places one character in a team.
type TeamMemberRequest struct {
	CharacterID int64   `json:"character_id"`
	LightconeID *int64  `json:"lightcone_id,omitempty"`
	RelicIDs    []int64 `json:"relic_ids,omitempty"`
}

// TeamRequest creates or replaces a team.
type TeamRequest struct {
	Name    string              `json:"name"`
	Members []TeamMemberRequest `json:"members"`
}

// StatUpdateRequest sets one stat value.
type StatUpdateRequest struct {
	Value float64 `json:"value"`
}

// RegisterRequest creates a regular user account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// AuthLoginRequest starts a browser session.
type AuthLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMeResponse describes the caller.
type AuthMeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
	AuthType      string `json:"auth_type,omitempty"`
}

// AdminUser is a user as shown to administrators.
type AdminUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Disabled  bool   `json:"disabled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AdminCreateUserRequest creates a user with an explicit role.
type AdminCreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AdminSetUserDisabledRequest toggles one account.
type AdminSetUserDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

// RehashTypeResult counts one record type of a rehash pass.
type RehashTypeResult struct {
	RecordType string `json:"record_type"`
	Scanned    int    `json:"scanned"`
	Updated    int    `json:"updated"`
	Failed     int    `json:"failed"`
	Skipped    bool   `json:"skipped,omitempty"`
}

// RehashResponse summarizes a rehash pass.
type RehashResponse struct {
	Types   []RehashTypeResult `json:"types"`
	Scanned int                `json:"scanned"`
	Updated int                `json:"updated"`
	Failed  int                `json:"failed"`
}

// CleanupSessionsRequest removes expired or revoked sessions.
type CleanupSessionsRequest struct {
	OlderThanDays int  `json:"older_than_days"`
	DryRun        bool `json:"dry_run"`
}

// CleanupSessionsResponse reports removed sessions.
type CleanupSessionsResponse struct {
	Count  int  `json:"count"`
	DryRun bool `json:"dry_run"`
}
