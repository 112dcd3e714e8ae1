// Package identity covers the session surface of the storefront: signing
// in and out against the hosted auth provider, verifying the provider's
// access tokens locally and deciding who counts as an administrator.
package identity

import (
	"strings"
	"time"
)

// Session is the authenticated state derived from a verified access token.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Allowlist decides admin access from a fixed set of email addresses.
// Matching is case-insensitive.
type Allowlist struct {
	emails map[string]struct{}
}

// NewAllowlist builds an allowlist from the configured admin emails.
// Blank entries are ignored.
func NewAllowlist(emails []string) *Allowlist {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return &Allowlist{emails: set}
}

// IsAdmin reports whether the email belongs to an administrator.
func (a *Allowlist) IsAdmin(email string) bool {
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
