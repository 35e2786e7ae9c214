package models

import (
	"database/sql"
	"time"
)

// WhitelistEntry is one currently-valid refresh token for one user.
// A row exists from the moment the token is issued until logout deletes it;
// expired rows stay in place but read as absent.
type WhitelistEntry struct {
	ID         int64
	UserID     int64
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastUsedAt sql.NullTime
}
