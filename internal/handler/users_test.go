package handler

import (
	"net/http"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Create and login
// ---------------------------------------------------------------------------

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/users", toJSON(t, map[string]interface{}{
		"username": "alice",
		"password": testPassword,
		"email":    "alice@example.com",
	}))
	assertStatus(t, rr, http.StatusCreated)

	var resp userResponse
	decodeJSON(t, rr, &resp)
	if !resp.Success || resp.Username != "alice" || resp.Message != "User created successfully" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "taken", false)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", "{", "JSON data required"},
		{"missing password", `{"username":"bob"}`, "Username and password are required"},
		{"short username", `{"username":"ab","password":"longenough"}`, "Username must be at least 3 characters"},
		{"short password", `{"username":"bob","password":"short"}`, "Password must be at least 8 characters"},
		{"duplicate", `{"username":"taken","password":"longenough"}`, "User already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/users", strings.NewReader(tt.body))
			assertError(t, rr, http.StatusBadRequest, tt.want)
		})
	}
}

func TestLoginSetsCookieAndToken(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", false)

	rr := env.do(t, "POST", "/api/v1/users/login", toJSON(t, map[string]string{
		"username": "alice",
		"password": testPassword,
	}))
	assertStatus(t, rr, http.StatusOK)

	cookie := sessionCookie(rr)
	if cookie == nil {
		t.Fatal("expected a session cookie")
	}
	if !cookie.HttpOnly || cookie.MaxAge != int(env.sessions.Timeout().Seconds()) {
		t.Errorf("cookie = %+v", cookie)
	}

	var resp loginResponse
	decodeJSON(t, rr, &resp)
	if resp.Token != cookie.Value || resp.Username != "alice" {
		t.Errorf("unexpected response: %+v", resp)
	}

	// The returned token authenticates on its own.
	req := env.doAs(t, resp.Token, "GET", "/api/v1/users/me", nil)
	assertStatus(t, req, http.StatusOK)
}

func TestLoginWithoutRememberUsesBrowserSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", false)

	rr := env.do(t, "POST", "/api/v1/users/login", strings.NewReader(
		`{"username":"alice","password":"`+testPassword+`","remember":false}`))
	assertStatus(t, rr, http.StatusOK)
	if c := sessionCookie(rr); c == nil || c.MaxAge != 0 {
		t.Errorf("cookie = %+v, want one without Max-Age", c)
	}
}

func TestLoginFailuresShareMessage(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", false)

	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong-password"},
		{"username": "nobody", "password": testPassword},
	} {
		rr := env.do(t, "POST", "/api/v1/users/login", toJSON(t, body))
		assertError(t, rr, http.StatusUnauthorized, "Invalid username or password")
		if sessionCookie(rr) != nil {
			t.Error("failed login must not set a cookie")
		}
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", false)
	if err := env.users.SetActive(t.Context(), "alice", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	rr := env.do(t, "POST", "/api/v1/users/login", toJSON(t, map[string]string{
		"username": "alice",
		"password": testPassword,
	}))
	assertError(t, rr, http.StatusUnauthorized, "Account is disabled")
}

// ---------------------------------------------------------------------------
// Logout, me and password change
// ---------------------------------------------------------------------------

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "POST", "/api/v1/users/logout", nil)
	assertStatus(t, rr, http.StatusOK)
	if c := sessionCookie(rr); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected the cookie to be cleared, got %+v", c)
	}
	var resp logoutResponse
	decodeJSON(t, rr, &resp)
	if resp.Username == nil || *resp.Username != "alice" {
		t.Errorf("username = %v, want alice", resp.Username)
	}

	// Anonymous logout succeeds too.
	rr = env.do(t, "POST", "/api/v1/users/logout", nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestLogoutPage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/users/logout", nil)
	assertStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Logout Successful") {
		t.Error("page body missing")
	}
	if c := sessionCookie(rr); c == nil || c.MaxAge >= 0 {
		t.Error("expected the cookie to be cleared")
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "alice", true)

	rr := env.doAs(t, token, "GET", "/api/v1/users/me", nil)
	assertStatus(t, rr, http.StatusOK)

	var resp meResponse
	decodeJSON(t, rr, &resp)
	if resp.User.Username != "alice" || !resp.User.Authenticated || !resp.User.IsAdmin {
		t.Errorf("unexpected user: %+v", resp.User)
	}
	if resp.User.LoginTime.IsZero() {
		t.Error("login_time should be set")
	}

	rr = env.do(t, "GET", "/api/v1/users/me", nil)
	assertError(t, rr, http.StatusUnauthorized, "Authentication required")
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "POST", "/api/v1/users/changepassword", toJSON(t, map[string]string{
		"currentPassword": "not-my-password",
		"newPassword":     "brand-new-password",
	}))
	assertError(t, rr, http.StatusBadRequest, "Current password is incorrect")

	rr = env.doAs(t, token, "POST", "/api/v1/users/changepassword", toJSON(t, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "short",
	}))
	assertError(t, rr, http.StatusBadRequest, "New password must be at least 8 characters")

	rr = env.doAs(t, token, "POST", "/api/v1/users/changepassword", toJSON(t, map[string]string{
		"currentPassword": testPassword,
	}))
	assertError(t, rr, http.StatusBadRequest, "Current password and new password are required")

	rr = env.doAs(t, token, "POST", "/api/v1/users/changepassword", toJSON(t, map[string]string{
		"currentPassword": testPassword,
		"newPassword":     "brand-new-password",
	}))
	assertStatus(t, rr, http.StatusOK)

	if _, err := env.users.Authenticate(t.Context(), "alice", "brand-new-password"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Administration
// ---------------------------------------------------------------------------

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "root", true)
	token := env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "GET", "/api/v1/users/list", nil)
	assertError(t, rr, http.StatusForbidden, "Admin privileges required")

	rr = env.do(t, "GET", "/api/v1/users/list", nil)
	assertError(t, rr, http.StatusUnauthorized, "Authentication required")
}

func TestListAndGetUsers(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "root", true)
	env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "GET", "/api/v1/users/list", nil)
	assertStatus(t, rr, http.StatusOK)
	var list userListResponse
	decodeJSON(t, rr, &list)
	if list.Count != 2 || list.Users[0].Username != "root" || list.Users[1].Username != "alice" {
		t.Errorf("unexpected list: %+v", list)
	}

	rr = env.doAs(t, token, "GET", "/api/v1/users/list?admins=true", nil)
	decodeJSON(t, rr, &list)
	if list.Count != 1 {
		t.Errorf("admin-only count = %d, want 1", list.Count)
	}

	rr = env.doAs(t, token, "GET", "/api/v1/users/alice/info", nil)
	assertStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), "password_hash") || strings.Contains(rr.Body.String(), "salt") {
		t.Error("user info must not expose credentials")
	}

	rr = env.doAs(t, token, "GET", "/api/v1/users/ghost/info", nil)
	assertError(t, rr, http.StatusNotFound, "User not found")
}

func TestActivateDeactivate(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "root", true)
	aliceToken := env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "POST", "/api/v1/users/alice/deactivate", nil)
	assertStatus(t, rr, http.StatusOK)

	// The deactivated user's live session stops working.
	rr = env.doAs(t, aliceToken, "GET", "/api/v1/users/me", nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	rr = env.doAs(t, token, "POST", "/api/v1/users/alice/activate", nil)
	assertStatus(t, rr, http.StatusOK)
	rr = env.doAs(t, aliceToken, "GET", "/api/v1/users/me", nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAs(t, token, "POST", "/api/v1/users/ghost/activate", nil)
	assertError(t, rr, http.StatusNotFound, "User not found")
}

func TestSelfModificationGuards(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "root", true)
	env.seedUser(t, "second", true)

	tests := []struct {
		method, path, want string
	}{
		{"POST", "/api/v1/users/root/deactivate", "Cannot deactivate your own account"},
		{"DELETE", "/api/v1/users/root/delete", "Cannot delete your own account"},
		{"POST", "/api/v1/users/admin/demote/root", "Cannot demote yourself from admin"},
	}
	for _, tt := range tests {
		rr := env.doAs(t, token, tt.method, tt.path, nil)
		assertError(t, rr, http.StatusBadRequest, tt.want)
	}

	info, err := env.users.GetInfo(t.Context(), "root")
	if err != nil || !info.Active || !info.IsAdmin {
		t.Errorf("guarded account changed: %+v, %v", info, err)
	}
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "root", true)
	env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "POST", "/api/v1/users/alice/reset-password", toJSON(t, map[string]string{"newPassword": "short"}))
	assertError(t, rr, http.StatusBadRequest, "Password must be at least 8 characters")

	rr = env.doAs(t, token, "POST", "/api/v1/users/alice/reset-password", toJSON(t, map[string]string{}))
	assertError(t, rr, http.StatusBadRequest, "New password is required")

	rr = env.doAs(t, token, "POST", "/api/v1/users/ghost/reset-password", toJSON(t, map[string]string{"newPassword": "long-enough"}))
	assertError(t, rr, http.StatusNotFound, "User not found")

	rr = env.doAs(t, token, "POST", "/api/v1/users/alice/reset-password", toJSON(t, map[string]string{"newPassword": "long-enough"}))
	assertStatus(t, rr, http.StatusOK)
	if _, err := env.users.Authenticate(t.Context(), "alice", "long-enough"); err != nil {
		t.Errorf("reset password rejected: %v", err)
	}
}

func TestPromoteDemoteDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedUser(t, "root", true)
	env.seedUser(t, "alice", false)

	rr := env.doAs(t, token, "POST", "/api/v1/users/admin/promote/ghost", nil)
	assertError(t, rr, http.StatusNotFound, "User not found or inactive")

	rr = env.doAs(t, token, "POST", "/api/v1/users/admin/promote/alice", nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAs(t, token, "POST", "/api/v1/users/admin/demote/alice", nil)
	assertStatus(t, rr, http.StatusOK)

	// root is now the only active admin.
	rr = env.doAs(t, token, "POST", "/api/v1/users/admin/demote/alice", nil)
	assertError(t, rr, http.StatusBadRequest, "Cannot demote the last admin user")

	rr = env.doAs(t, token, "DELETE", "/api/v1/users/alice/delete", nil)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAs(t, token, "DELETE", "/api/v1/users/alice/delete", nil)
	assertError(t, rr, http.StatusNotFound, "User not found")
}
