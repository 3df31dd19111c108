package models

import "time"

// ApiUser is a programmatic API consumer authenticating via bearer keys.
type ApiUser struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Email     string    `db:"email"      json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ApiUserWithKeys is an ApiUser plus the metadata of all its keys.
type ApiUserWithKeys struct {
	ApiUser
	ApiKeys []ApiKey `json:"apiKeys"`
}
