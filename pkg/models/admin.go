// Package models contains shared data models used across the llmsvc codebase.
package models

import "time"

// AdminUser is a console operator with full management privileges.
// The password hash lives in a separate credential record and is never
// serialized to clients.
type AdminUser struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Email     string    `db:"email"      json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// AdminCredential is the secret half of an AdminUser. Exactly one exists
// per admin. The hash embeds its own algorithm parameters and salt.
type AdminCredential struct {
	AdminID      string `db:"admin_id"`
	PasswordHash string `db:"password_hash"`
}
