package models

import "time"

// SnippetLen is how many leading characters of a raw key are safe to show.
const SnippetLen = 8

// ApiKey is a time-bounded bearer credential for an ApiUser. The raw key
// value is returned exactly once at creation; afterwards only the snippet
// is ever serialized.
type ApiKey struct {
	ID        string    `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"-"`
	Key       string    `db:"key"        json:"-"`
	Snippet   string    `db:"-"          json:"snippet"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

// Valid reports whether the key is still live at the given instant.
func (k *ApiKey) Valid(now time.Time) bool {
	return now.Before(k.ExpiresAt)
}
