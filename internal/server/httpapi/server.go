// Package httpapi exposes the session operations over HTTP/JSON and owns
// the request-level concerns: routing, DTOs, error-to-status mapping, and
// access-token authentication middleware.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// SessionManager is the slice of the session service the HTTP layer needs.
// *services.SessionService satisfies it; tests substitute a fake.
type SessionManager interface {
	Register(ctx context.Context, fullName, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	Refresh(ctx context.Context, userID int64, refreshToken string) (string, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address   string
	logger    logging.Logger
	sessions  SessionManager
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, sm SessionManager, secretKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		sessions:  sm,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Handler builds the route table. Split out of Run so tests can drive the
// mux through httptest without binding a socket.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.Handle("GET /me", s.requireAuth(http.HandlerFunc(s.handleMe)))

	return s.withRequestID(s.withLogging(mux))
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
