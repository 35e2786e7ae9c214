package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	whitelistrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/whitelist"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newSessionService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *SessionService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 168 * time.Hour,
	}
	return NewSessionService(db, rm, cfg)
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	emailExistsOut bool
	emailExistsErr error

	lastCreated *models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.lastCreated = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = 1
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return f.emailExistsOut, f.emailExistsErr
}

// fakeWhitelistRepo keeps entries in a map so one-shot revocation is
// observable across calls.
type fakeWhitelistRepo struct {
	entries map[string]bool

	insertErr error
	existsErr error
	deleteErr error
	touchErr  error

	touched      int
	lastInserted string
}

func newFakeWhitelistRepo() *fakeWhitelistRepo {
	return &fakeWhitelistRepo{entries: make(map[string]bool)}
}

func wlKey(userID int64, token string) string {
	return strconv.FormatInt(userID, 10) + "|" + token
}

func (f *fakeWhitelistRepo) Insert(ctx context.Context, userID int64, token string, validity time.Duration) (*models.WhitelistEntry, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.entries[wlKey(userID, token)] = true
	f.lastInserted = token
	return &models.WhitelistEntry{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}, nil
}

func (f *fakeWhitelistRepo) Exists(ctx context.Context, userID int64, token string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.entries[wlKey(userID, token)], nil
}

func (f *fakeWhitelistRepo) Delete(ctx context.Context, userID int64, token string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	key := wlKey(userID, token)
	if !f.entries[key] {
		return false, nil
	}
	delete(f.entries, key)
	return true, nil
}

func (f *fakeWhitelistRepo) TouchLastUsed(ctx context.Context, userID int64, token string) (bool, error) {
	if f.touchErr != nil {
		return false, f.touchErr
	}
	f.touched++
	return f.entries[wlKey(userID, token)], nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	w *fakeWhitelistRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository         { return m.u }
func (m *fakeRepoManager) Whitelist(db dbx.DBTX) whitelistrepo.Repository { return m.w }

// --- Register ---

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	user, err := s.Register(context.Background(), "Ann Lee", "Ann@Example.com", "longpass1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected assigned id, got %d", user.ID)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash != "" {
		t.Fatalf("returned user must not carry a password hash")
	}
	if rm.u.lastCreated.PasswordHash == "longpass1" {
		t.Fatalf("plaintext password must never be persisted")
	}
	if !cryptox.CheckPassword(rm.u.lastCreated.PasswordHash, "longpass1") {
		t.Fatalf("stored hash must verify against the original password")
	}
}

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	cases := []struct {
		name                      string
		fullName, email, password string
		want                      error
	}{
		{"blank name", "  ", "ann@example.com", "longpass1", common.ErrorAllFieldsRequired},
		{"blank email", "Ann Lee", "", "longpass1", common.ErrorAllFieldsRequired},
		{"blank password", "Ann Lee", "ann@example.com", "", common.ErrorAllFieldsRequired},
		{"not an email", "Ann Lee", "not-an-email", "longpass1", common.ErrorInvalidEmailFormat},
		{"no tld", "Ann Lee", "ann@example", "longpass1", common.ErrorInvalidEmailFormat},
		{"short password", "Ann Lee", "ann@example.com", "short1", common.ErrorPasswordTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tc.fullName, tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegister_EmailExists_FastPath(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{emailExistsOut: true}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	_, err := s.Register(context.Background(), "Ann Lee", "ann@example.com", "longpass1")
	if !errors.Is(err, common.ErrorEmailExists) {
		t.Fatalf("expected common.ErrorEmailExists, got %v", err)
	}
}

func TestRegister_EmailExists_ConstraintRace(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	// pre-check passes, insert loses the race to a concurrent registration
	rm := &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorEmailExists}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	_, err := s.Register(context.Background(), "Ann Lee", "ann@example.com", "longpass1")
	if !errors.Is(err, common.ErrorEmailExists) {
		t.Fatalf("expected common.ErrorEmailExists, got %v", err)
	}
}

// --- Login ---

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := cryptox.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	return h
}

func TestLogin_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{ID: 5, Email: "ann@example.com", PasswordHash: hashFor(t, "longpass1")}},
		w: newFakeWhitelistRepo(),
	}
	s := newSessionService(t, db, rm)

	pair, err := s.Login(context.Background(), "ann@example.com", "longpass1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens must be distinct")
	}
	if rm.w.lastInserted != pair.RefreshToken {
		t.Fatalf("whitelisted token %q does not match returned refresh token", rm.w.lastInserted)
	}

	userID, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	if userID != 5 {
		t.Fatalf("access token bound to wrong user: %d", userID)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	if _, err := s.Login(context.Background(), "", "longpass1"); !errors.Is(err, common.ErrorAllFieldsRequired) {
		t.Fatalf("expected common.ErrorAllFieldsRequired, got %v", err)
	}
	if _, err := s.Login(context.Background(), "ann@example.com", ""); !errors.Is(err, common.ErrorAllFieldsRequired) {
		t.Fatalf("expected common.ErrorAllFieldsRequired, got %v", err)
	}
}

func TestLogin_UnknownEmailAndWrongPassword_Indistinguishable(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	unknown := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound}, w: newFakeWhitelistRepo()}
	s1 := newSessionService(t, db, unknown)
	_, errUnknown := s1.Login(context.Background(), "ghost@example.com", "longpass1")

	wrongPw := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{ID: 5, PasswordHash: hashFor(t, "longpass1")}},
		w: newFakeWhitelistRepo(),
	}
	s2 := newSessionService(t, db, wrongPw)
	_, errWrong := s2.Login(context.Background(), "ann@example.com", "wrongpass")

	if !errors.Is(errUnknown, common.ErrorInvalidCredentials) {
		t.Fatalf("unknown email: expected common.ErrorInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrong, common.ErrorInvalidCredentials) {
		t.Fatalf("wrong password: expected common.ErrorInvalidCredentials, got %v", errWrong)
	}
	if errUnknown != errWrong {
		t.Fatalf("the two failures must be the same error value")
	}
}

func TestLogin_WhitelistInsertFailure_NoTokens(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	w := newFakeWhitelistRepo()
	w.insertErr = errors.New("db down")
	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byEmailOut: &models.User{ID: 5, PasswordHash: hashFor(t, "longpass1")}},
		w: w,
	}
	s := newSessionService(t, db, rm)

	pair, err := s.Login(context.Background(), "ann@example.com", "longpass1")
	if err == nil {
		t.Fatalf("expected error when whitelist insert fails")
	}
	if pair != nil {
		t.Fatalf("no tokens may be returned when whitelisting fails")
	}
}

// --- Logout ---

func TestLogout_SucceedsExactlyOnce(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	w := newFakeWhitelistRepo()
	w.entries[wlKey(5, "refresh-xyz")] = true
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: w}
	s := newSessionService(t, db, rm)

	mock.ExpectBegin()
	mock.ExpectCommit()
	if err := s.Logout(context.Background(), 5, "refresh-xyz"); err != nil {
		t.Fatalf("first Logout error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectRollback()
	err := s.Logout(context.Background(), 5, "refresh-xyz")
	if !errors.Is(err, common.ErrorTokenNotWhitelisted) {
		t.Fatalf("second Logout: expected common.ErrorTokenNotWhitelisted, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLogout_MissingFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	if err := s.Logout(context.Background(), 0, "tok"); !errors.Is(err, common.ErrorLogoutFieldsRequired) {
		t.Fatalf("expected common.ErrorLogoutFieldsRequired, got %v", err)
	}
	if err := s.Logout(context.Background(), 5, ""); !errors.Is(err, common.ErrorLogoutFieldsRequired) {
		t.Fatalf("expected common.ErrorLogoutFieldsRequired, got %v", err)
	}
}

func TestLogout_ForeignToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	// the token is whitelisted for user 5, user 6 tries to revoke it
	w := newFakeWhitelistRepo()
	w.entries[wlKey(5, "refresh-xyz")] = true
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: w}
	s := newSessionService(t, db, rm)

	mock.ExpectBegin()
	mock.ExpectRollback()
	err := s.Logout(context.Background(), 6, "refresh-xyz")
	if !errors.Is(err, common.ErrorTokenNotWhitelisted) {
		t.Fatalf("expected common.ErrorTokenNotWhitelisted, got %v", err)
	}
	if !w.entries[wlKey(5, "refresh-xyz")] {
		t.Fatalf("the owner's entry must survive a foreign revoke attempt")
	}
}

// --- Refresh ---

func TestRefresh_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	w := newFakeWhitelistRepo()
	w.entries[wlKey(5, "refresh-xyz")] = true
	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: w}
	s := newSessionService(t, db, rm)

	accessToken, err := s.Refresh(context.Background(), 5, "refresh-xyz")
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	userID, err := auth.GetUserIDFromToken(accessToken, []byte("k"))
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if userID != 5 {
		t.Fatalf("token bound to wrong user: %d", userID)
	}
	if w.touched != 1 {
		t.Fatalf("expected last_used_at to be touched once, got %d", w.touched)
	}
}

func TestRefresh_NotWhitelisted(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	_, err := s.Refresh(context.Background(), 5, "never-issued")
	if !errors.Is(err, common.ErrorTokenNotWhitelisted) {
		t.Fatalf("expected common.ErrorTokenNotWhitelisted, got %v", err)
	}
}

func TestRefresh_MissingFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	if _, err := s.Refresh(context.Background(), 0, "tok"); !errors.Is(err, common.ErrorAllFieldsRequired) {
		t.Fatalf("expected common.ErrorAllFieldsRequired, got %v", err)
	}
}

// --- GetUser ---

func TestGetUser_Found(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{byIDOut: &models.User{ID: 5, Email: "ann@example.com", FullName: "Ann Lee"}},
		w: newFakeWhitelistRepo(),
	}
	s := newSessionService(t, db, rm)

	user, err := s.GetUser(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if user.Email != "ann@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{byIDErr: common.ErrorNotFound}, w: newFakeWhitelistRepo()}
	s := newSessionService(t, db, rm)

	_, err := s.GetUser(context.Background(), 42)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected common.ErrorNotFound, got %v", err)
	}
}
