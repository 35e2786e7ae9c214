package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/api"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

// authAPI is the slice of the api.Client surface the CLI needs.
// Tests substitute a fake.
type authAPI interface {
	Register(ctx context.Context, fullName, email string, password []byte) (*api.User, error)
	Login(ctx context.Context, email string, password []byte) (*api.TokenPair, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	Refresh(ctx context.Context, userID int64, refreshToken string) (string, error)
	Me(ctx context.Context, accessToken string) (*api.User, error)
	Ping(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    authAPI
	tokens *api.TokenPair
	user   *api.User
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	apiClient := api.NewClient(c.ServerEndpointAddr, c.RequestTimeout)
	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) isLoggedIn() bool {
	return a.tokens != nil
}

func (a *App) getStatus() string {
	if a.user != nil {
		return "(" + a.user.Email + ")"
	}
	return ""
}

func (a *App) Run(ctx context.Context) {
	log.Println("Welcome to GophAuth CLI (type 'help' for commands)")

	if err := a.api.Ping(ctx); err != nil {
		log.Printf("Warning: server unreachable: %s", err.Error())
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
