package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/pscheid92/adminpulse/internal/domain"
)

// UsersClient wraps the backend's user management endpoints. All calls go
// through the gateway, so expired access tokens are renewed transparently.
type UsersClient struct {
	gw *Gateway
}

func NewUsersClient(gw *Gateway) *UsersClient {
	return &UsersClient{gw: gw}
}

// UserList is a page of users together with the unpaged total.
type UserList struct {
	Users []domain.User `json:"users"`
	Total int           `json:"total"`
}

// UserCreate carries the fields for creating a user.
type UserCreate struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// UserUpdate carries a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string      `json:"name,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Role     *domain.Role `json:"role,omitempty"`
}

func (c *UsersClient) List(ctx context.Context, skip, limit int) (*UserList, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))

	resp, err := c.gw.Do(ctx, Request{Method: http.MethodGet, Path: "/users", Query: query})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var list UserList
	if err := resp.Decode(&list); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &list, nil
}

func (c *UsersClient) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodGet, Path: "/users/" + id.String()})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (c *UsersClient) Create(ctx context.Context, in UserCreate) (*domain.User, error) {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodPost, Path: "/users", Body: in})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (c *UsersClient) Update(ctx context.Context, id uuid.UUID, in UserUpdate) (*domain.User, error) {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodPut, Path: "/users/" + id.String(), Body: in})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp)
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}

func (c *UsersClient) Delete(ctx context.Context, id uuid.UUID) error {
	resp, err := c.gw.Do(ctx, Request{Method: http.MethodDelete, Path: "/users/" + id.String()})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return errorFromResponse(resp)
	}
	return nil
}
