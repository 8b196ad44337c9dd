package model

import "time"

// User is a row of the users table. PasswordHash and Salt never leave the
// store layer in API responses; use Info for anything client facing.
type User struct {
	ID                int64      `json:"id" db:"id"`
	Username          string     `json:"username" db:"username"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	Salt              string     `json:"-" db:"salt"`
	Email             *string    `json:"email" db:"email"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	LastLogin         *time.Time `json:"last_login" db:"last_login"`
	PasswordChangedAt *time.Time `json:"password_changed_at" db:"password_changed_at"`
	Active            bool       `json:"active" db:"active"`
	IsAdmin           bool       `json:"is_admin" db:"is_admin"`
}

// UserInfo is the public projection of a User.
type UserInfo struct {
	Username          string     `json:"username"`
	Email             *string    `json:"email"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLogin         *time.Time `json:"last_login"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	Active            bool       `json:"active"`
	IsAdmin           bool       `json:"is_admin"`
}

// Info returns the public projection of u.
func (u *User) Info() UserInfo {
	return UserInfo{
		Username:          u.Username,
		Email:             u.Email,
		CreatedAt:         u.CreatedAt,
		LastLogin:         u.LastLogin,
		PasswordChangedAt: u.PasswordChangedAt,
		Active:            u.Active,
		IsAdmin:           u.IsAdmin,
	}
}
