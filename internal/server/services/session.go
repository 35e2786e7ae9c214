// Package services contains server-side business logic. This file implements
// SessionService, which handles registration, login, logout, and re-issuing
// access tokens against the server-stored refresh-token whitelist.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// emailShape is a deliberately simple local@domain.tld check; anything
// stricter belongs to a confirmation email, not a regexp.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService provides the credential-and-session operations:
//   - Register: validate input and create users
//   - Login: verify credentials, mint a token pair, whitelist the refresh token
//   - Logout: revoke a whitelisted refresh token (one-shot)
//   - Refresh: mint a new access token for a still-whitelisted refresh token
type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewSessionService constructs a SessionService using repositories and server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register validates the input, hashes the password, and creates the user.
// The returned record never carries the password hash. The unique constraint
// on email is authoritative; EmailExists is only a fast-path rejection, so a
// concurrent duplicate still surfaces as common.ErrorEmailExists.
func (s *SessionService) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)

	if fullName == "" || email == "" || password == "" {
		return nil, common.ErrorAllFieldsRequired
	}
	if !emailShape.MatchString(email) {
		return nil, common.ErrorInvalidEmailFormat
	}
	if len(password) < minPasswordLength {
		return nil, common.ErrorPasswordTooShort
	}

	repo := s.repomanager.Users(s.db)

	exists, err := repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, common.ErrorEmailExists
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{Email: email, FullName: fullName, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorEmailExists) {
			return nil, common.ErrorEmailExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Login verifies the credentials and, on success, returns a new TokenPair
// with the refresh token whitelisted. An unknown email and a wrong password
// are indistinguishable to the caller. If whitelisting fails, no tokens are
// returned: an unwhitelisted refresh token could never be revoked.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrorAllFieldsRequired
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorInvalidCredentials
	}

	return s.generateTokenPair(ctx, user.ID)
}

// Logout revokes the whitelist entry for (userID, refreshToken). The
// existence check is a fast path; the delete's row count is authoritative,
// so two racing logouts can never both succeed. A second identical call
// fails with common.ErrorTokenNotWhitelisted.
func (s *SessionService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if userID == 0 || refreshToken == "" {
		return common.ErrorLogoutFieldsRequired
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Whitelist(tx)

		exists, err := repo.Exists(ctx, userID, refreshToken)
		if err != nil {
			return fmt.Errorf("error checking whitelist: %w", err)
		}
		if !exists {
			return common.ErrorTokenNotWhitelisted
		}

		removed, err := repo.Delete(ctx, userID, refreshToken)
		if err != nil {
			return fmt.Errorf("error deleting whitelist entry: %w", err)
		}
		if !removed {
			// lost the race to a concurrent logout
			return common.ErrorTokenNotWhitelisted
		}
		return nil
	})
}

// Refresh mints a new access token for a refresh token that is still
// whitelisted for userID. The refresh token itself is not rotated; its
// last_used_at is stamped for bookkeeping.
func (s *SessionService) Refresh(ctx context.Context, userID int64, refreshToken string) (string, error) {
	if userID == 0 || refreshToken == "" {
		return "", common.ErrorAllFieldsRequired
	}

	repo := s.repomanager.Whitelist(s.db)

	exists, err := repo.Exists(ctx, userID, refreshToken)
	if err != nil {
		return "", fmt.Errorf("error checking whitelist: %w", err)
	}
	if !exists {
		return "", common.ErrorTokenNotWhitelisted
	}

	if _, err := repo.TouchLastUsed(ctx, userID, refreshToken); err != nil {
		return "", fmt.Errorf("error touching whitelist entry: %w", err)
	}

	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return accessToken, nil
}

// GetUser returns the user record for userID, without the password hash.
func (s *SessionService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *SessionService) generateTokenPair(ctx context.Context, userID int64) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := auth.GenerateToken(userID, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	whitelistRepo := s.repomanager.Whitelist(s.db)
	if _, err := whitelistRepo.Insert(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("error whitelisting refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
