package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"silverrail/internal/api"
	"silverrail/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	if s.throttled(w, r, s.registrationLimiter, "ip:"+requestClientIP(r), "too many registrations; retry later") {
		return
	}

	user, err := s.authService.Register(r.Context(), req.Username, req.Email, req.Password, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, adminUserResponse(*user))
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req api.AuthLoginRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	limiterKey := loginAttemptKey(req.Username, r)
	if !s.loginLimiter.Allow(limiterKey, now) {
		s.writeErrorReq(w, r, http.StatusTooManyRequests, tooManyRequests(fmt.Errorf("too many login attempts; retry later")))
		return
	}

	result, err := s.authService.Login(r.Context(), req.Username, req.Password, now)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			s.loginLimiter.RegisterFailure(limiterKey, now)
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(errInvalidCredentials))
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.loginLimiter.Reset(limiterKey)

	http.SetCookie(w, sessionCookie(r, result.Token, result.ExpiresAt.Sub(now), result.ExpiresAt))

	s.writeJSON(w, http.StatusOK, api.AuthMeResponse{
		Authenticated: true,
		Username:      result.User.Username,
		Role:          result.User.Role,
		AuthType:      authTypeSession,
	})
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionTokenFromRequest(r); token != "" {
		if err := s.authService.RevokeSessionToken(r.Context(), token, time.Now().UTC()); err != nil {
			s.writeStoreError(w, r, err)
			return
		}
	}

	http.SetCookie(w, sessionCookie(r, "", -1, time.Unix(0, 0).UTC()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := authPrincipalFromContext(r.Context())
	if !ok {
		s.writeJSON(w, http.StatusOK, api.AuthMeResponse{Authenticated: false})
		return
	}

	resp := api.AuthMeResponse{
		Authenticated: true,
		AuthType:      principal.AuthType,
		Username:      principal.Username(),
	}
	if principal.User != nil {
		resp.Role = principal.User.Role
	} else if principal.IsAdmin() {
		resp.Role = models.RoleAdmin
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// sessionCookie builds the login cookie. A negative maxAge expires it.
func sessionCookie(r *http.Request, token string, maxAge time.Duration, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(maxAge / time.Second)
	}
	return cookie
}

func loginAttemptKey(username string, r *http.Request) string {
	user := strings.ToLower(strings.TrimSpace(username))
	if user == "" {
		user = "<empty>"
	}
	ip := requestClientIP(r)
	if ip == "" {
		ip = "<unknown>"
	}
	return ip + "|" + user
}

func requestClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err == nil {
		return strings.TrimSpace(host)
	}
	return remote
}
