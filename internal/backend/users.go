package backend

import (
	"context"
	"net/http"
)

type NewUser struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
}

// UserUpdate leaves the password untouched when Password is empty.
type UserUpdate struct {
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
	Status   int     `json:"status"`
	Password string  `json:"password,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.getJSON(ctx, "users.list", "/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var out User
	if err := c.getJSON(ctx, "users.get", "/users/"+esc(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	var out User
	if err := c.doJSON(ctx, "users.create", http.MethodPost, "/users", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UserUpdate) (*User, error) {
	var out User
	if err := c.doJSON(ctx, "users.update", http.MethodPut, "/users/"+esc(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, "users.delete", http.MethodDelete, "/users/"+esc(id), nil, nil)
}
