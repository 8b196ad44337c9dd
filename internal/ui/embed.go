// Package ui holds the static pages served by the API.
package ui

import _ "embed"

// LogoutPage is the HTML shown by GET /api/v1/users/logout.
//
//go:embed logout.html
var LogoutPage []byte
