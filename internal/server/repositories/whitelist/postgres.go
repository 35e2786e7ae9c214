package whitelist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists a new whitelist row. The foreign key on user_id is the
// authoritative referential check; a violation maps to common.ErrorUnknownUser.
func (r *PostgresRepository) Insert(ctx context.Context, userID int64, token string, validity time.Duration) (*models.WhitelistEntry, error) {
	if userID == 0 || token == "" || validity <= 0 {
		return nil, common.ErrorAllFieldsRequired
	}

	query := `
		INSERT INTO jwt_whitelist (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	entry := &models.WhitelistEntry{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(validity),
	}
	err := r.db.QueryRowContext(ctx, query, userID, token, entry.ExpiresAt).
		Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, common.ErrorUnknownUser
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

// Exists checks for a live (unexpired) row with the composite key.
func (r *PostgresRepository) Exists(ctx context.Context, userID int64, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM jwt_whitelist
			WHERE user_id = $1 AND refresh_token = $2 AND expires_at > now()
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Delete removes the row for (userID, token) and reports whether a live row
// went away. At most one delete per pair can ever report true.
func (r *PostgresRepository) Delete(ctx context.Context, userID int64, token string) (bool, error) {
	query := `
		DELETE FROM jwt_whitelist
		WHERE user_id = $1 AND refresh_token = $2 AND expires_at > now()
	`
	res, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// TouchLastUsed stamps last_used_at on the live row for (userID, token).
func (r *PostgresRepository) TouchLastUsed(ctx context.Context, userID int64, token string) (bool, error) {
	query := `
		UPDATE jwt_whitelist
		SET last_used_at = now()
		WHERE user_id = $1 AND refresh_token = $2 AND expires_at > now()
	`
	res, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
