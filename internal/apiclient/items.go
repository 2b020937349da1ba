package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/erazemk/materiais/internal/model"
)

// ListItems handles GET /items. Order is the backend's.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetItem handles GET /items/{id}.
func (c *Client) GetItem(ctx context.Context, id model.ID) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(id.String()), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem handles POST /items.
func (c *Client) CreateItem(ctx context.Context, fields model.ItemFields) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, http.MethodPost, "/items", fields, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem handles PUT /items/{id}. All fields are replaced.
func (c *Client) UpdateItem(ctx context.Context, id model.ID, fields model.ItemFields) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, http.MethodPut, "/items/"+url.PathEscape(id.String()), fields, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem handles DELETE /items/{id}.
func (c *Client) DeleteItem(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(id.String()), nil, nil)
}

// ListActivities handles GET /items/activities/all.
func (c *Client) ListActivities(ctx context.Context) ([]model.Activity, error) {
	var activities []model.Activity
	if err := c.do(ctx, http.MethodGet, "/items/activities/all", nil, &activities); err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []model.Activity{}
	}
	return activities, nil
}
