// Package whitelist declares the repository contract for the refresh-token
// whitelist: the single source of truth for "is this refresh token currently
// usable". Absence of a row means revoked or never issued.
package whitelist

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines operations over persisted whitelist entries.
//
// Expiry policy: Exists, Delete, and TouchLastUsed only consider rows whose
// expires_at lies in the future. An expired-but-undeleted row therefore
// behaves exactly like a revoked one; its physical cleanup is not this
// layer's concern.
type Repository interface {
	// Insert stores a new entry for (userID, token) expiring now+validity.
	// Empty fields yield common.ErrorAllFieldsRequired; a userID with no
	// matching user yields common.ErrorUnknownUser. Insertion is additive:
	// one user may hold any number of simultaneously valid tokens.
	Insert(ctx context.Context, userID int64, token string, validity time.Duration) (*models.WhitelistEntry, error)

	// Exists reports whether an unexpired entry for (userID, token) is present.
	Exists(ctx context.Context, userID int64, token string) (bool, error)

	// Delete removes the entry for (userID, token) and reports whether an
	// unexpired row was actually removed. Re-deleting is a no-op that
	// reports false.
	Delete(ctx context.Context, userID int64, token string) (bool, error)

	// TouchLastUsed stamps last_used_at for (userID, token). Bookkeeping
	// only; reports whether a live row was touched.
	TouchLastUsed(ctx context.Context, userID int64, token string) (bool, error)
}
