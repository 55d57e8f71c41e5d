// Package adminclient maps the admin endpoints. The server rejects callers
// without an admin role.
package adminclient

import (
	"context"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

const (
	usersPath     = "/admin/users"
	worksPath     = "/admin/works"
	paymentsPath  = "/admin/payments"
	analyticsPath = "/admin/analytics"
)

type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Users(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.User], error) {
	return getPage[domain.User](ctx, c.api, usersPath, params)
}

func (c *Client) Works(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Work], error) {
	return getPage[domain.Work](ctx, c.api, worksPath, params)
}

func (c *Client) Payments(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Payment], error) {
	return getPage[domain.Payment](ctx, c.api, paymentsPath, params)
}

func (c *Client) Analytics(ctx context.Context) (domain.Analytics, error) {
	var out domain.Analytics
	if err := c.api.Get(ctx, analyticsPath, nil, &out); err != nil {
		return domain.Analytics{}, err
	}
	return out, nil
}

func getPage[T any](ctx context.Context, api *apiclient.Client, path string, params domain.PaginationParams) (domain.Page[T], error) {
	var page domain.Page[T]
	if err := api.Get(ctx, path, params, &page); err != nil {
		return domain.Page[T]{}, err
	}
	return page, nil
}
