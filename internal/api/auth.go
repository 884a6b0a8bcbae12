package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pscheid92/adminpulse/internal/domain"
)

// AuthClient wraps the backend's authentication endpoints.
type AuthClient struct {
	gw *Gateway
}

func NewAuthClient(gw *Gateway) *AuthClient {
	return &AuthClient{gw: gw}
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Credentials domain.Credentials
	User        domain.User
}

// Login exchanges email and password for a credential pair and user
// snapshot. It does not touch the credential store; the session manager
// owns that write.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.gw.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var body struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		User         domain.User `json:"user"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &LoginResult{
		Credentials: domain.Credentials{
			AccessToken:  body.AccessToken,
			RefreshToken: body.RefreshToken,
		},
		User: body.User,
	}, nil
}

// Me fetches the user snapshot for the current access token.
func (c *AuthClient) Me(ctx context.Context) (*domain.User, error) {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/me"})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &user, nil
}

// Logout asks the backend to invalidate the server-side session. Callers
// treat it as best-effort: a failure here never blocks local logout.
func (c *AuthClient) Logout(ctx context.Context) error {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/logout"})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return errorFromResponse(resp)
	}
	return nil
}
