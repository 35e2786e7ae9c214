package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a full name, email and password and attempts
// to create a new account.
//
// On success it prints the created account's email and returns nil. The
// password byte slice is wiped before returning. Any I/O or service error
// is returned unchanged.
func (a *App) Register(ctx context.Context) error {
	fullName, err := getSimpleText(a.reader, "Enter full name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.api.Register(ctx, fullName, email, password)
	if err != nil {
		log.Printf("Registration unsuccessfull: %s", err.Error())
		return err
	}

	fmt.Printf("Success! Account created for %s\n", u.Email)
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// On success it stores the token pair in memory and fetches the user's
// profile so the prompt can show who is logged in. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	tokens, err := a.api.Login(ctx, email, password)
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	user, err := a.api.Me(ctx, tokens.AccessToken)
	if err != nil {
		log.Printf("Could not load profile: %s", err.Error())
		return err
	}

	a.tokens = tokens
	a.user = user

	log.Printf("Login successfull")
	return nil
}

// Logout revokes the session's refresh token on the server and drops the
// in-memory token pair. The local state is cleared even if the server-side
// revocation fails, so a stale session never survives in the client.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}

	err := a.api.Logout(ctx, a.user.ID, a.tokens.RefreshToken)
	if err != nil {
		log.Printf("Logout unsuccessfull: %s", err.Error())
	} else {
		fmt.Println("Logged out")
	}

	a.tokens = nil
	a.user = nil
	return err
}
