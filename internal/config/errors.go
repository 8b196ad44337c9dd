package config

import "errors"

// ErrNotFound is returned when a requested resource does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when inserting a user whose username is taken.
var ErrDuplicate = errors.New("already exists")

// ErrLastAdmin is returned when a change would leave no admin account.
var ErrLastAdmin = errors.New("last admin")
