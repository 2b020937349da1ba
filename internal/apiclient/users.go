package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/erazemk/materiais/internal/model"
)

// GetUser handles GET /users/{id}.
func (c *Client) GetUser(ctx context.Context, id model.ID) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id.String()), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser handles PUT /users/{id}. An empty password is not sent.
func (c *Client) UpdateUser(ctx context.Context, id model.ID, update model.UserUpdate) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id.String()), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser handles DELETE /users/{id}.
func (c *Client) DeleteUser(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id.String()), nil, nil)
}
