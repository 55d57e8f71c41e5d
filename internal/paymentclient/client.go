// Package paymentclient maps the payments endpoints.
package paymentclient

import (
	"context"
	"fmt"
	"net/url"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

const (
	createPath  = "/payments/create"
	confirmPath = "/payments/confirm"
	historyPath = "/payments/history"
	paymentPath = "/payments"
)

// CreateRequest starts a checkout.
type CreateRequest struct {
	WorkID        string               `json:"workId,omitempty"`
	Amount        int64                `json:"amount"`
	Currency      string               `json:"currency"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Description   string               `json:"description,omitempty"`
}

// CreateResponse points the user at the provider checkout page.
type CreateResponse struct {
	PaymentID   string `json:"paymentId"`
	CheckoutURL string `json:"checkoutUrl"`
	ExternalID  string `json:"externalId"`
}

// Client calls the payments endpoints.
type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	var resp CreateResponse
	if err := c.api.Post(ctx, createPath, req, &resp); err != nil {
		return CreateResponse{}, err
	}
	return resp, nil
}

// Confirm asks the server to settle a payment after the provider redirect.
func (c *Client) Confirm(ctx context.Context, paymentID string) (domain.Payment, error) {
	var payment domain.Payment
	body := map[string]string{"paymentId": paymentID}
	if err := c.api.Post(ctx, confirmPath, body, &payment); err != nil {
		return domain.Payment{}, err
	}
	return payment, nil
}

func (c *Client) History(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Payment], error) {
	var page domain.Page[domain.Payment]
	if err := c.api.Get(ctx, historyPath, params, &page); err != nil {
		return domain.Page[domain.Payment]{}, err
	}
	return page, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Payment, error) {
	var payment domain.Payment
	path := fmt.Sprintf("%s/%s", paymentPath, url.PathEscape(id))
	if err := c.api.Get(ctx, path, nil, &payment); err != nil {
		return domain.Payment{}, err
	}
	return payment, nil
}
