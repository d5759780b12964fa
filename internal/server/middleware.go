package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
	unmatchedRoute  = "unmatched"
)

type requestInfoKey struct{}

// requestInfo travels with a request through every middleware. The mux
// fills in route once a pattern matched.
type requestInfo struct {
	id    string
	route string
}

func requestInfoFromContext(ctx context.Context) *requestInfo {
	if ctx == nil {
		return nil
	}
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

func requestIDFromContext(ctx context.Context) string {
	if info := requestInfoFromContext(ctx); info != nil {
		return info.id
	}
	return ""
}

func routeFromContext(ctx context.Context) string {
	if info := requestInfoFromContext(ctx); info != nil && info.route != "" {
		return info.route
	}
	return unmatchedRoute
}

// withRequestID accepts a caller supplied X-Request-ID or generates one, and
// echoes it on the response.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recordRoute stores the matched mux pattern for the outer middlewares.
func recordRoute(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if info := requestInfoFromContext(r.Context()); info != nil && r.Pattern != "" {
			info.route = r.Pattern
		}
	})
}

// withAuth resolves the caller from a bearer API token or a session cookie.
// Anonymous requests pass through without a principal.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || s.apiToken == "" || strings.TrimSpace(token) != s.apiToken {
				s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("invalid bearer token")))
				return
			}
			ctx := contextWithAuthPrincipal(r.Context(), authPrincipal{AuthType: authTypeBearer})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token := sessionTokenFromRequest(r)
		if token == "" || s.authService == nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.authService.AuthenticateSessionToken(r.Context(), token, time.Now().UTC())
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		if user == nil || user.Disabled {
			next.ServeHTTP(w, r)
			return
		}
		ctx := contextWithAuthPrincipal(r.Context(), authPrincipal{AuthType: authTypeSession, User: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withThrottle applies the daily request quotas to API routes. Users are
// limited per account, anonymous callers per client IP. Admins are exempt.
func (s *Server) withThrottle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		limiter := s.anonLimiter
		key := "ip:" + requestClientIP(r)
		if principal, ok := authPrincipalFromContext(r.Context()); ok {
			if principal.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			limiter = s.userLimiter
			key = "user:" + principal.OwnerID()
		}

		if s.throttled(w, r, limiter, key, "request quota exceeded; retry later") {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly rejects callers that may not edit the catalogue.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := authPrincipalFromContext(r.Context())
		if !ok {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
			return
		}
		if !principal.IsAdmin() {
			s.writeErrorReq(w, r, http.StatusForbidden, forbidden(fmt.Errorf("admin role required")))
			return
		}
		next(w, r)
	}
}

// authenticated rejects anonymous callers.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authPrincipalFromContext(r.Context()); !ok {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
			return
		}
		next(w, r)
	}
}

func sessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		return strings.ToLower(proto)
	}
	return "http"
}
