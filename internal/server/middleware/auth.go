package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/johestephan/dokemon-api/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "dokemon_session"

type contextKeyAuth string

const (
	// SessionKey is the context key for the caller's session.
	SessionKey contextKeyAuth = "session"
)

// LoadSession returns an HTTP middleware that reads the session token from
// the session cookie or, when that is absent or does not verify, an
// Authorization Bearer header. A valid token attaches a *service.Session to
// the request context; otherwise the request stays anonymous. Expiry and
// revocation are not checked here.
func LoadSession(sessions *service.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, token := range sessionTokens(r) {
				if sess, err := sessions.Parse(token); err == nil {
					r = r.WithContext(WithSession(r.Context(), sess))
					break
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionTokens returns the candidate tokens of r, cookie first.
func sessionTokens(r *http.Request) []string {
	var tokens []string
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimPrefix(h, "Bearer "); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// RequireAuth returns an HTTP middleware admitting only active, unexpired
// sessions. It must be used after LoadSession in the middleware chain.
func RequireAuth(gate *service.Gate) func(http.Handler) http.Handler {
	return require(gate, service.AuthRequired)
}

// RequireAdmin returns an HTTP middleware admitting only sessions of
// active admins. It must be used after LoadSession in the middleware chain.
func RequireAdmin(gate *service.Gate) func(http.Handler) http.Handler {
	return require(gate, service.AdminRequired)
}

func require(gate *service.Gate, req service.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := gate.Check(r.Context(), GetSession(r.Context()), req)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, service.ErrSessionExpired):
				ClearSessionCookie(w)
				writeAuthError(w, http.StatusUnauthorized, service.Message(err))
			case errors.Is(err, service.ErrUnauthenticated):
				writeAuthError(w, http.StatusUnauthorized, service.Message(err))
			case errors.Is(err, service.ErrForbidden):
				writeAuthError(w, http.StatusForbidden, service.Message(err))
			default:
				writeAuthError(w, http.StatusInternalServerError, "Authorization check failed")
			}
		})
	}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *service.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// GetSession extracts the session from the context.
// Returns nil if no session is present (i.e., anonymous request).
func GetSession(ctx context.Context) *service.Session {
	if s, ok := ctx.Value(SessionKey).(*service.Session); ok {
		return s
	}
	return nil
}

// SetSessionCookie writes the session cookie. Permanent sessions persist
// for maxAge; others end with the browser session.
func SetSessionCookie(w http.ResponseWriter, token string, permanent bool, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if permanent {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	}
	http.SetCookie(w, c)
}

// ClearSessionCookie instructs the client to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoded here to avoid an import cycle with the handler package.
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
