package domain

import "time"

// Session is an authentication grant minted on a successful external login.
// The token is the opaque string issued by the auth provider; expiry is
// enforced at lookup time, the TTL index only garbage-collects stale rows.
type Session struct {
	ID           string    `bson:"id"            json:"id"`
	UserID       string    `bson:"user_id"       json:"user_id"`
	SessionToken string    `bson:"session_token" json:"session_token"`
	ExpiresAt    time.Time `bson:"expires_at"    json:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"    json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.UTC().After(s.ExpiresAt.UTC())
}
