package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTimeout bounds how long a login stays valid.
const DefaultSessionTimeout = 2 * time.Hour

// Session is the state carried by a signed session token.
type Session struct {
	ID        string
	Username  string
	LoginTime time.Time
	Permanent bool
}

// SessionManager issues and verifies session tokens. Tokens carry no exp
// claim; expiry is decided from LoginTime against the configured timeout
// each time the session is used.
type SessionManager struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

// NewSessionManager creates a SessionManager. A non-positive timeout falls
// back to DefaultSessionTimeout.
func NewSessionManager(secret string, timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionManager{
		secret:  []byte(secret),
		timeout: timeout,
		now:     time.Now,
	}
}

// Timeout returns the session lifetime.
func (m *SessionManager) Timeout() time.Duration {
	return m.timeout
}

// Issue starts a session for username and returns its signed token.
func (m *SessionManager) Issue(username string, permanent bool) (string, *Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("session id: %w", err)
	}
	now := m.now().UTC()
	sess := &Session{
		ID:        id.String(),
		Username:  username,
		LoginTime: now,
		Permanent: permanent,
	}
	token, err := m.sign(sess, now)
	if err != nil {
		return "", nil, err
	}
	return token, sess, nil
}

func (m *SessionManager) sign(sess *Session, issuedAt time.Time) (string, error) {
	claims := sessionClaims{
		Username:  sess.Username,
		LoginTime: sess.LoginTime.UTC().Format(time.RFC3339),
		Permanent: sess.Permanent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       sess.ID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
			Issuer:   "dokemon",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns its session. It does not check expiry.
func (m *SessionManager) Parse(tokenStr string) (*Session, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	loginTime, err := time.Parse(time.RFC3339, claims.LoginTime)
	if err != nil || claims.Username == "" {
		return nil, ErrUnauthenticated
	}
	return &Session{
		ID:        claims.ID,
		Username:  claims.Username,
		LoginTime: loginTime,
		Permanent: claims.Permanent,
	}, nil
}

// Expired reports whether more than the timeout has passed since login.
func (m *SessionManager) Expired(s *Session) bool {
	return m.now().Sub(s.LoginTime) > m.timeout
}

type sessionClaims struct {
	Username  string `json:"username"`
	LoginTime string `json:"login_time"`
	Permanent bool   `json:"permanent"`
	jwt.RegisteredClaims
}
