// Package models holds the server-side persistence records.
package models

import "time"

// User is an identity record. PasswordHash is only populated by lookups
// that serve authentication; profile reads leave it empty.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
}
