package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check, info, and metrics.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)
	if s.metricsEnabled {
		mux.Handle("GET /metrics", s.metricsHandler())
	}

	// Stored files.
	mux.HandleFunc("GET /media/{key...}", s.handleMedia)

	// Characters.
	mux.HandleFunc("GET /v1/characters", s.handleListCharacters)
	mux.HandleFunc("POST /v1/characters", s.adminOnly(s.handleCreateCharacter))
	mux.HandleFunc("GET /v1/characters/{id}", s.handleGetCharacter)
	mux.HandleFunc("PATCH /v1/characters/{id}", s.adminOnly(s.handleUpdateCharacter))
	mux.HandleFunc("DELETE /v1/characters/{id}", s.adminOnly(s.handleDeleteCharacter))
	mux.HandleFunc("POST /v1/characters/{id}/image", s.adminOnly(s.handleUploadCharacterImage))
	mux.HandleFunc("GET /v1/characters/{id}/abilities", s.handleListCharacterAbilities)
	mux.HandleFunc("GET /v1/characters/{id}/stats", s.handleListCharacterStats)
	mux.HandleFunc("PUT /v1/characters/{id}/stats/{type}", s.adminOnly(s.handleSetCharacterStat))

	// Abilities.
	mux.HandleFunc("GET /v1/abilities", s.handleListAbilities)
	mux.HandleFunc("POST /v1/abilities", s.adminOnly(s.handleCreateAbility))
	mux.HandleFunc("GET /v1/abilities/{id}", s.handleGetAbility)
	mux.HandleFunc("PATCH /v1/abilities/{id}", s.adminOnly(s.handleUpdateAbility))
	mux.HandleFunc("DELETE /v1/abilities/{id}", s.adminOnly(s.handleDeleteAbility))
	mux.HandleFunc("POST /v1/abilities/{id}/icon", s.adminOnly(s.handleUploadAbilityIcon))

	// Lightcones.
	mux.HandleFunc("GET /v1/lightcones", s.handleListLightcones)
	mux.HandleFunc("POST /v1/lightcones", s.adminOnly(s.handleCreateLightcone))
	mux.HandleFunc("GET /v1/lightcones/{id}", s.handleGetLightcone)
	mux.HandleFunc("PATCH /v1/lightcones/{id}", s.adminOnly(s.handleUpdateLightcone))
	mux.HandleFunc("DELETE /v1/lightcones/{id}", s.adminOnly(s.handleDeleteLightcone))
	mux.HandleFunc("POST /v1/lightcones/{id}/image", s.adminOnly(s.handleUploadLightconeImage))
	mux.HandleFunc("GET /v1/lightcones/{id}/stats", s.handleListLightconeStats)
	mux.HandleFunc("PUT /v1/lightcones/{id}/stats/{type}", s.adminOnly(s.handleSetLightconeStat))

	// Relics.
	mux.HandleFunc("GET /v1/relics", s.handleListRelics)
	mux.HandleFunc("POST /v1/relics", s.adminOnly(s.handleCreateRelic))
	mux.HandleFunc("GET /v1/relics/{id}", s.handleGetRelic)
	mux.HandleFunc("PATCH /v1/relics/{id}", s.adminOnly(s.handleUpdateRelic))
	mux.HandleFunc("DELETE /v1/relics/{id}", s.adminOnly(s.handleDeleteRelic))
	mux.HandleFunc("POST /v1/relics/{id}/icon", s.adminOnly(s.handleUploadRelicIcon))
	mux.HandleFunc("POST /v1/relics/{id}/set_icon", s.adminOnly(s.handleUploadRelicSetIcon))

	// Stats.
	mux.HandleFunc("PATCH /v1/stats/{id}", s.adminOnly(s.handleUpdateStat))

	// Teams.
	mux.HandleFunc("GET /v1/teams", s.authenticated(s.handleListTeams))
	mux.HandleFunc("POST /v1/teams", s.authenticated(s.handleCreateTeam))
	mux.HandleFunc("GET /v1/teams/{id}", s.authenticated(s.handleGetTeam))
	mux.HandleFunc("PUT /v1/teams/{id}", s.authenticated(s.handleUpdateTeam))
	mux.HandleFunc("DELETE /v1/teams/{id}", s.authenticated(s.handleDeleteTeam))

	// Accounts.
	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleAuthLogin)
	mux.HandleFunc("POST /v1/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("GET /v1/auth/me", s.handleAuthMe)

	// Admin.
	mux.HandleFunc("POST /v1/admin/files/rehash", s.adminOnly(s.handleAdminRehash))
	mux.HandleFunc("POST /v1/admin/sessions/cleanup", s.adminOnly(s.handleAdminCleanupSessions))
	mux.HandleFunc("GET /v1/admin/users", s.adminOnly(s.handleAdminListUsers))
	mux.HandleFunc("POST /v1/admin/users", s.adminOnly(s.handleAdminCreateUser))
	mux.HandleFunc("PATCH /v1/admin/users/{username}", s.adminOnly(s.handleAdminSetUserDisabled))
	mux.HandleFunc("DELETE /v1/admin/users/{username}", s.adminOnly(s.handleAdminDeleteUser))

	return recordRoute(mux)
}
