package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user may edit the catalogue.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
