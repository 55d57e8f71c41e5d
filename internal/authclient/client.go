// Package authclient signs users in and out and keeps the credential
// provider in step with the server session.
package authclient

import (
	"context"
	"strings"

	"musicworks/internal/apiclient"
	"musicworks/internal/util"
	"musicworks/pkg/domain"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	refreshPath  = "/auth/refresh"
	logoutPath   = "/auth/logout"
	mePath       = "/auth/me"
)

// Client calls the auth endpoints.
type Client struct {
	api *apiclient.Client
}

// NewClient constructs an auth client on top of api.
func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// Login exchanges credentials for a session and stores both tokens.
func (c *Client) Login(ctx context.Context, creds domain.LoginCredentials) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.api.Post(ctx, loginPath, creds, &resp); err != nil {
		return domain.AuthResponse{}, err
	}
	if err := c.api.Credentials().SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return domain.AuthResponse{}, err
	}
	return resp, nil
}

// Register creates an account and stores the issued tokens.
func (c *Client) Register(ctx context.Context, data domain.RegisterData) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.api.Post(ctx, registerPath, data, &resp); err != nil {
		return domain.AuthResponse{}, err
	}
	if err := c.api.Credentials().SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return domain.AuthResponse{}, err
	}
	return resp, nil
}

// Logout tells the server to end the session. A server failure is only
// logged; local credentials are always cleared.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.api.Post(ctx, logoutPath, nil, nil); err != nil {
		util.LoggerFromContext(ctx).Warn("logout request failed", "err", err)
	}
	return c.api.Credentials().Clear(ctx)
}

// RefreshToken performs an explicit refresh exchange and stores the new
// access token.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	creds := c.api.Credentials()
	refresh, err := creds.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(refresh) == "" {
		return "", apiclient.ErrNoRefreshToken
	}
	var resp struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.api.Post(ctx, refreshPath, map[string]string{"refreshToken": refresh}, &resp); err != nil {
		return "", err
	}
	if err := creds.SetTokens(ctx, resp.Token, resp.RefreshToken); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) CurrentUser(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.api.Get(ctx, mePath, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// IsAuthenticated reports whether an access token is stored. It does not
// check the token with the server.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	token, err := c.Token(ctx)
	return err == nil && token != ""
}

// Token returns the stored access token, or "".
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.api.Credentials().AccessToken(ctx)
}
