package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johestephan/dokemon-api/internal/model"
	"github.com/johestephan/dokemon-api/internal/server/middleware"
	"github.com/johestephan/dokemon-api/internal/service"
	"github.com/johestephan/dokemon-api/internal/ui"
)

// UserHandler serves account management under /api/v1/users.
type UserHandler struct {
	users    *service.Directory
	sessions *service.SessionManager
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.Directory, sessions *service.SessionManager, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Request and response payloads
// ---------------------------------------------------------------------------

type createUserRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Remember selects a persistent cookie. Omitted means true.
	Remember *bool `json:"remember,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type userResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
	Token    string `json:"token"`
	// ExpiresIn is the session timeout in seconds.
	ExpiresIn int `json:"expires_in"`
}

type logoutResponse struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message"`
	Username *string `json:"username"`
}

type currentUser struct {
	Username      string     `json:"username"`
	Email         *string    `json:"email"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login"`
	LoginTime     time.Time  `json:"login_time"`
	Authenticated bool       `json:"authenticated"`
	IsAdmin       bool       `json:"is_admin"`
}

type meResponse struct {
	Success bool        `json:"success"`
	User    currentUser `json:"user"`
}

type userInfoResponse struct {
	Success bool            `json:"success"`
	User    *model.UserInfo `json:"user"`
}

type userListResponse struct {
	Success bool             `json:"success"`
	Users   []model.UserInfo `json:"users"`
	Count   int              `json:"count"`
}

// ---------------------------------------------------------------------------
// Self service
// ---------------------------------------------------------------------------

// CreateUser registers a new, non-admin account.
// POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON data required")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	info, err := h.users.CreateUser(r.Context(), req.Username, req.Password, req.Email, false)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		Success:  true,
		Message:  "User created successfully",
		Username: info.Username,
	})
}

// Login verifies credentials, sets the session cookie and returns the same
// token for clients that prefer an Authorization header.
// POST /api/v1/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON data required")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	info, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err, "Authentication error")
		return
	}

	permanent := req.Remember == nil || *req.Remember
	token, _, err := h.sessions.Issue(info.Username, permanent)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to start session")
		return
	}
	middleware.SetSessionCookie(w, token, permanent, h.sessions.Timeout())

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Authentication successful",
		Username:  info.Username,
		Token:     token,
		ExpiresIn: int(h.sessions.Timeout().Seconds()),
	})
}

// Logout revokes the caller's session token and clears the cookie. It
// succeeds without a session too.
// POST /api/v1/users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.endSession(w, r)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to end session")
		return
	}

	resp := logoutResponse{Success: true, Message: "Logged out successfully"}
	if sess != nil {
		resp.Username = &sess.Username
	}
	writeJSON(w, http.StatusOK, resp)
}

// LogoutPage ends the session like Logout and answers with an HTML page.
// GET /api/v1/users/logout
func (h *UserHandler) LogoutPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.endSession(w, r); err != nil {
		writeServiceError(w, h.logger, err, "Failed to end session")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(ui.LogoutPage)
}

// Me returns the caller's account and session details.
// GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	info, err := h.users.GetInfo(r.Context(), sess.Username)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Success: true,
		User: currentUser{
			Username:      info.Username,
			Email:         info.Email,
			CreatedAt:     info.CreatedAt,
			LastLogin:     info.LastLogin,
			LoginTime:     sess.LoginTime,
			Authenticated: true,
			IsAdmin:       info.IsAdmin,
		},
	})
}

// ChangePassword replaces the caller's password after checking the old one.
// POST /api/v1/users/changepassword
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON data required")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	sess := middleware.GetSession(r.Context())
	if err := h.users.ChangePassword(r.Context(), sess.Username, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, h.logger, err, "Failed to change password")
		return
	}
	writeMessage(w, "Password changed successfully")
}

// ---------------------------------------------------------------------------
// Administration
// ---------------------------------------------------------------------------

// ListUsers returns every account in creation order.
// GET /api/v1/users/list
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), queryBool(r, "admins", false))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, userListResponse{
		Success: true,
		Users:   users,
		Count:   len(users),
	})
}

// GetUser returns one account.
// GET /api/v1/users/{username}/info
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	info, err := h.users.GetInfo(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, userInfoResponse{Success: true, User: info})
}

// Activate re-enables an account.
// POST /api/v1/users/{username}/activate
func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if err := h.users.SetActive(r.Context(), chi.URLParam(r, "username"), true); err != nil {
		writeServiceError(w, h.logger, err, "Failed to activate user")
		return
	}
	writeMessage(w, "User activated successfully")
}

// Deactivate disables an account other than the caller's.
// POST /api/v1/users/{username}/deactivate
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if h.isSelf(r, username) {
		writeError(w, http.StatusBadRequest, "Cannot deactivate your own account")
		return
	}
	if err := h.users.SetActive(r.Context(), username, false); err != nil {
		writeServiceError(w, h.logger, err, "Failed to deactivate user")
		return
	}
	writeMessage(w, "User deactivated successfully")
}

// ResetPassword sets a new password without knowing the old one.
// POST /api/v1/users/{username}/reset-password
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON data required")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password is required")
		return
	}

	if err := h.users.ResetPassword(r.Context(), chi.URLParam(r, "username"), req.NewPassword); err != nil {
		writeServiceError(w, h.logger, err, "Failed to reset password")
		return
	}
	writeMessage(w, "Password reset successfully")
}

// Promote grants admin rights to an active account.
// POST /api/v1/users/admin/promote/{username}
func (h *UserHandler) Promote(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.users.Promote(r.Context(), username); err != nil {
		writeServiceError(w, h.logger, err, "Failed to promote user")
		return
	}
	writeMessage(w, "User "+username+" promoted to admin")
}

// Demote revokes admin rights from an account other than the caller's.
// POST /api/v1/users/admin/demote/{username}
func (h *UserHandler) Demote(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if h.isSelf(r, username) {
		writeError(w, http.StatusBadRequest, "Cannot demote yourself from admin")
		return
	}
	if err := h.users.Demote(r.Context(), username); err != nil {
		if errors.Is(err, service.ErrLastAdmin) {
			writeError(w, http.StatusBadRequest, "Cannot demote the last admin user")
			return
		}
		writeServiceError(w, h.logger, err, "Failed to demote user")
		return
	}
	writeMessage(w, "User "+username+" demoted from admin")
}

// DeleteUser removes an account other than the caller's.
// DELETE /api/v1/users/{username}/delete
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if h.isSelf(r, username) {
		writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	if err := h.users.Delete(r.Context(), username); err != nil {
		if errors.Is(err, service.ErrLastAdmin) {
			writeError(w, http.StatusBadRequest, "Cannot delete the last admin user")
			return
		}
		writeServiceError(w, h.logger, err, "Failed to delete user")
		return
	}
	writeMessage(w, "User deleted successfully")
}

// endSession clears the cookie and revokes whichever token the request
// carried, cookie or Bearer.
func (h *UserHandler) endSession(w http.ResponseWriter, r *http.Request) (*service.Session, error) {
	middleware.ClearSessionCookie(w)
	sess := middleware.GetSession(r.Context())
	return sess, h.users.RevokeSession(r.Context(), sess, h.sessions.Timeout())
}

func (h *UserHandler) isSelf(r *http.Request, username string) bool {
	sess := middleware.GetSession(r.Context())
	return sess != nil && sess.Username == username
}
