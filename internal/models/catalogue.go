package models

import "time"

// Character is a playable character.
type Character struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Element     string    `json:"element"`
	Path        string    `json:"path"`
	Rarity      int       `json:"rarity"`
	LightconeID *int64    `json:"lightcone_id,omitempty"`
	Image       string    `json:"image,omitempty"`
	ImageHash   string    `json:"image_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Abilities   []Ability `json:"abilities,omitempty"`
	Stats       []Stat    `json:"stats,omitempty"`
}

// Ability belongs to exactly one character.
type Ability struct {
	ID                 int64     `json:"id"`
	CharacterID        int64     `json:"character_id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	EnergyCost         *int      `json:"energy_cost,omitempty"`
	SkillPointCost     *int      `json:"skill_point_cost,omitempty"`
	EnergyRegeneration *int      `json:"energy_regeneration,omitempty"`
	BreakEffect        *int      `json:"break_effect,omitempty"`
	Targeting          string    `json:"targeting"`
	Icon               string    `json:"icon,omitempty"`
	IconHash           string    `json:"icon_hash,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Lightcone is an equippable weapon.
type Lightcone struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rarity    int       `json:"rarity"`
	Ability   string    `json:"ability"`
	Path      string    `json:"path"`
	Image     string    `json:"image,omitempty"`
	ImageHash string    `json:"image_hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Stats     []Stat    `json:"stats,omitempty"`
}

// Relic is one piece of a relic set. SetIcon has no paired hash column.
type Relic struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SetName   string    `json:"set_name"`
	Effect    string    `json:"effect"`
	Slot      string    `json:"slot"`
	Icon      string    `json:"icon,omitempty"`
	IconHash  string    `json:"icon_hash,omitempty"`
	SetIcon   string    `json:"set_icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
