package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/johestephan/dokemon-api/internal/config"
	"github.com/johestephan/dokemon-api/internal/credential"
	"github.com/johestephan/dokemon-api/internal/model"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8

	// DefaultAdminUsername is the account created on an empty directory.
	DefaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@dokemon.local"
)

// Directory owns every mutation of user accounts and enforces the rules
// around them: credential hashing, length checks and the last-admin guard.
type Directory struct {
	store  *config.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewDirectory creates a Directory backed by store.
func NewDirectory(store *config.Store, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser registers a new active account.
func (d *Directory) CreateUser(ctx context.Context, username, password string, email *string, isAdmin bool) (*model.UserInfo, error) {
	if utf8.RuneCountInString(username) < minUsernameLength {
		return nil, invalid("Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, invalid("Password must be at least 8 characters")
	}
	return d.insert(ctx, username, password, email, isAdmin)
}

// insert stores a new account without length checks.
func (d *Directory) insert(ctx context.Context, username, password string, email *string, isAdmin bool) (*model.UserInfo, error) {
	cred := credential.Hash(password, "")
	u := &model.User{
		Username:     username,
		PasswordHash: cred.Hash,
		Salt:         cred.Salt,
		Email:        email,
		CreatedAt:    d.now(),
		Active:       true,
		IsAdmin:      isAdmin,
	}
	if err := d.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, config.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	d.logger.Info("user created", "username", username, "admin", isAdmin)
	info := u.Info()
	return &info, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*model.UserInfo, error) {
	u, err := d.store.GetUser(ctx, username)
	if errors.Is(err, config.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !credential.Verify(password, u.PasswordHash, u.Salt) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	now := d.now()
	if err := d.store.TouchLastLogin(ctx, username, now); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	u.LastLogin = &now
	info := u.Info()
	return &info, nil
}

// ChangePassword replaces the password after checking the current one.
func (d *Directory) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return invalid("New password must be at least 8 characters")
	}
	u, err := d.store.GetUser(ctx, username)
	if errors.Is(err, config.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !credential.Verify(oldPassword, u.PasswordHash, u.Salt) {
		return ErrWrongPassword
	}
	return d.setPassword(ctx, username, newPassword)
}

// ResetPassword replaces the password without checking the current one.
func (d *Directory) ResetPassword(ctx context.Context, username, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return invalid("Password must be at least 8 characters")
	}
	return d.setPassword(ctx, username, newPassword)
}

func (d *Directory) setPassword(ctx context.Context, username, password string) error {
	cred := credential.Hash(password, "")
	err := d.store.UpdatePassword(ctx, username, cred.Hash, cred.Salt, d.now())
	if errors.Is(err, config.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	d.logger.Info("password changed", "username", username)
	return nil
}

// GetInfo returns the public projection of a user.
func (d *Directory) GetInfo(ctx context.Context, username string) (*model.UserInfo, error) {
	u, err := d.store.GetUser(ctx, username)
	if errors.Is(err, config.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	info := u.Info()
	return &info, nil
}

// ListUsers returns users oldest first.
func (d *Directory) ListUsers(ctx context.Context, adminOnly bool) ([]model.UserInfo, error) {
	users, err := d.store.ListUsers(ctx, adminOnly)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserInfo, len(users))
	for i := range users {
		out[i] = users[i].Info()
	}
	return out, nil
}

// SetActive enables or disables an account.
func (d *Directory) SetActive(ctx context.Context, username string, active bool) error {
	err := d.store.SetActive(ctx, username, active)
	if errors.Is(err, config.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	d.logger.Info("user active state changed", "username", username, "active", active)
	return nil
}

// Promote grants admin rights to an active user.
func (d *Directory) Promote(ctx context.Context, username string) error {
	err := d.store.Promote(ctx, username)
	if errors.Is(err, config.ErrNotFound) {
		return ErrNotFoundOrInactive
	}
	if err != nil {
		return fmt.Errorf("promote: %w", err)
	}
	d.logger.Info("user promoted", "username", username)
	return nil
}

// Demote revokes admin rights unless username holds the last active admin seat.
func (d *Directory) Demote(ctx context.Context, username string) error {
	err := d.store.Demote(ctx, username)
	switch {
	case errors.Is(err, config.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, config.ErrLastAdmin):
		return ErrLastAdmin
	case err != nil:
		return fmt.Errorf("demote: %w", err)
	}
	d.logger.Info("user demoted", "username", username)
	return nil
}

// Delete removes an account unless that would leave no active admin.
func (d *Directory) Delete(ctx context.Context, username string) error {
	err := d.store.DeleteUser(ctx, username)
	switch {
	case errors.Is(err, config.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, config.ErrLastAdmin):
		return ErrLastAdmin
	case err != nil:
		return fmt.Errorf("delete: %w", err)
	}
	d.logger.Info("user deleted", "username", username)
	return nil
}

// RevokeSession ends sess so its token is refused from now on. Revocations
// older than keep are dropped, since the sessions they name have expired.
func (d *Directory) RevokeSession(ctx context.Context, sess *Session, keep time.Duration) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	now := d.now()
	if err := d.store.RevokeSession(ctx, sess.ID, sess.Username, now); err != nil {
		return err
	}
	if _, err := d.store.PruneRevokedSessions(ctx, now.Add(-keep)); err != nil {
		d.logger.Warn("failed to prune revoked sessions", "error", err)
	}
	d.logger.Info("session revoked", "username", sess.Username)
	return nil
}

// SessionRevoked reports whether the session with id was logged out.
func (d *Directory) SessionRevoked(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return d.store.SessionRevoked(ctx, id)
}

// BootstrapDefaultAdmin creates the "admin" account when no admin exists.
// It reports whether an account was created.
func (d *Directory) BootstrapDefaultAdmin(ctx context.Context, password string) (bool, error) {
	n, err := d.store.CountAdmins(ctx, false)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	// The configured default may be shorter than the signup minimum.
	email := defaultAdminEmail
	if _, err := d.insert(ctx, DefaultAdminUsername, password, &email, true); err != nil {
		return false, fmt.Errorf("create default admin: %w", err)
	}
	d.logger.Warn("default admin account created, change its password",
		"username", DefaultAdminUsername)
	return true, nil
}
