package server

import (
	"context"

	"silverrail/internal/models"
)

type authContextKey struct{}

// apiTokenOwnerID owns teams created with the bearer API token.
const apiTokenOwnerID = "api-token"

type authPrincipal struct {
	AuthType string
	// User is nil for bearer token callers.
	User *models.User
}

// IsAdmin reports whether the principal may edit the catalogue.
func (p authPrincipal) IsAdmin() bool {
	if p.AuthType == authTypeBearer {
		return true
	}
	return p.User.IsAdmin()
}

// OwnerID identifies the principal as a team owner.
func (p authPrincipal) OwnerID() string {
	if p.User != nil {
		return p.User.ID
	}
	return apiTokenOwnerID
}

// Username returns the user's name, or the owner id for token callers.
func (p authPrincipal) Username() string {
	if p.User != nil {
		return p.User.Username
	}
	return apiTokenOwnerID
}

func contextWithAuthPrincipal(ctx context.Context, principal authPrincipal) context.Context {
	return context.WithValue(ctx, authContextKey{}, principal)
}

func authPrincipalFromContext(ctx context.Context) (authPrincipal, bool) {
	if ctx == nil {
		return authPrincipal{}, false
	}
	principal, ok := ctx.Value(authContextKey{}).(authPrincipal)
	return principal, ok
}
