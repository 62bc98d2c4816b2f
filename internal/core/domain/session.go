package domain

import "time"

// SessionCookieName is the cookie carrying the access token.
const SessionCookieName = "access_token"

// SessionTTL is how long an issued access token stays valid.
const SessionTTL = 7 * 24 * time.Hour

// SameSite mirrors the cookie SameSite attribute without tying the core to net/http.
type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
)

// SessionCookie describes the cookie the HTTP layer must set or clear.
type SessionCookie struct {
	Name     string
	Value    string
	Path     string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite SameSite
}

// Cleared reports whether the cookie instructs the client to delete it.
func (c SessionCookie) Cleared() bool {
	return c.MaxAge < 0
}
