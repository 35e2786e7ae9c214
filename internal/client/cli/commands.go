package cli

import (
	"context"
	"fmt"
	"log"
)

// Refresh exchanges the session's refresh token for a new access token
// and replaces the stored one.
func (a *App) Refresh(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}

	accessToken, err := a.api.Refresh(ctx, a.user.ID, a.tokens.RefreshToken)
	if err != nil {
		log.Printf("Refresh unsuccessfull: %s", err.Error())
		return err
	}

	a.tokens.AccessToken = accessToken
	fmt.Println("Access token refreshed")
	return nil
}

// Whoami fetches and prints the profile of the logged-in user using the
// current access token.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}

	u, err := a.api.Me(ctx, a.tokens.AccessToken)
	if err != nil {
		log.Printf("Request unsuccessfull: %s", err.Error())
		return err
	}

	fmt.Printf("#%d %s <%s>\n", u.ID, u.FullName, u.Email)
	return nil
}

// Ping probes server liveness and reports the result.
func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		fmt.Println("Server unreachable")
		return err
	}
	fmt.Println("Server is up")
	return nil
}
