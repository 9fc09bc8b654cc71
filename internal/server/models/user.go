// Package models defines the records persisted by the server.
package models

import "time"

// User is a registered identity. Digests are bcrypt strings; the raw
// password and remember token are never stored.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordDigest string
	RememberDigest string
	Admin          bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
