package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// User mirrors the server's user representation.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// TokenPair holds the tokens returned by a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type tokenRequest struct {
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is a typed HTTP client for the authentication server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the server at baseURL.
// A trailing slash on baseURL is tolerated.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// do issues one JSON request. A non-empty accessToken is sent as a bearer
// token. Transport failures map to ErrUnavailable; HTTP error statuses are
// translated by mapError.
func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.mapError(resp)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) mapError(resp *http.Response) error {
	msg := http.StatusText(resp.StatusCode)

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
		msg = er.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}
	return errors.New(msg)
}

// Register creates a new account and returns the created user.
func (c *Client) Register(ctx context.Context, fullName, email string, password []byte) (*User, error) {
	req := struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{FullName: fullName, Email: email, Password: string(password)}

	var u User
	if err := c.do(ctx, http.MethodPost, "/register", "", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email string, password []byte) (*TokenPair, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: string(password)}

	var tp TokenPair
	if err := c.do(ctx, http.MethodPost, "/login", "", req, &tp); err != nil {
		return nil, err
	}
	return &tp, nil
}

// Logout revokes the given refresh token.
func (c *Client) Logout(ctx context.Context, userID int64, refreshToken string) error {
	req := tokenRequest{UserID: userID, RefreshToken: refreshToken}
	return c.do(ctx, http.MethodPost, "/logout", "", req, nil)
}

// Refresh exchanges a valid refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, userID int64, refreshToken string) (string, error) {
	req := tokenRequest{UserID: userID, RefreshToken: refreshToken}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/refresh", "", req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Me returns the profile of the user the access token belongs to.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Ping checks server liveness.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/ping", "", nil, nil)
}
