package service

import (
	"context"
	"errors"
)

// Requirement is the access level an operation demands.
type Requirement int

const (
	// AuthRequired admits any active, unexpired session.
	AuthRequired Requirement = iota
	// AdminRequired additionally demands an active admin account.
	AdminRequired
)

// Gate decides whether a session may perform an operation.
type Gate struct {
	sessions *SessionManager
	users    *Directory
}

// NewGate creates a Gate.
func NewGate(sessions *SessionManager, users *Directory) *Gate {
	return &Gate{sessions: sessions, users: users}
}

// Check returns nil when s satisfies req. A nil or revoked session, an
// unknown or disabled user yield ErrUnauthenticated; an expired session yields
// ErrSessionExpired, which wraps it. Non-admins asking for AdminRequired
// get ErrForbidden.
func (g *Gate) Check(ctx context.Context, s *Session, req Requirement) error {
	if s == nil {
		return ErrUnauthenticated
	}
	if g.sessions.Expired(s) {
		return ErrSessionExpired
	}
	revoked, err := g.users.SessionRevoked(ctx, s.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrUnauthenticated
	}

	info, err := g.users.GetInfo(ctx, s.Username)
	if errors.Is(err, ErrUserNotFound) {
		return ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if !info.Active {
		return ErrUnauthenticated
	}
	if req == AdminRequired && !info.IsAdmin {
		return ErrForbidden
	}
	return nil
}
