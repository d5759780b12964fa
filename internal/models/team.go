package models

import "time"

// Team is a user-owned lineup of up to four characters.
type Team struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	OwnerID   string       `json:"owner_id"`
	Members   []TeamMember `json:"members"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TeamMember places one character in a team with its build.
type TeamMember struct {
	CharacterID int64   `json:"character_id"`
	LightconeID *int64  `json:"lightcone_id,omitempty"`
	RelicIDs    []int64 `json:"relic_ids,omitempty"`
}
