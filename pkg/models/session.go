package models

import "time"

// AdminSession is a live admin login. The token is the primary lookup key;
// a session authorizes requests iff the current time is before ExpiresAt.
type AdminSession struct {
	AdminID   string    `db:"admin_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Valid reports whether the session is still live at the given instant.
func (s *AdminSession) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
