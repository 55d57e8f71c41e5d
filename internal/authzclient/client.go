// Package authzclient maps the authorization request endpoints used to ask
// for exclusivity or additional rights on a registered work.
package authzclient

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

const (
	requestPath = "/authorization/request"
	listPath    = "/authorization"
)

// SubmitRequest is an authorization request with its proof documents.
type SubmitRequest struct {
	WorkID      string
	RequestType domain.RequestType
	Description string
	ProofFiles  []ProofFile
}

// ProofFile is one document attached as a "proofFiles" part.
type ProofFile struct {
	Name string
	Body io.Reader
}

// Client calls the authorization endpoints.
type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (domain.AuthorizationRequest, error) {
	form := apiclient.NewMultipart().
		Field("workId", req.WorkID).
		Field("requestType", string(req.RequestType)).
		Field("description", req.Description)
	for _, f := range req.ProofFiles {
		form.File("proofFiles", f.Name, f.Body)
	}
	var out domain.AuthorizationRequest
	if err := c.api.PostMultipart(ctx, requestPath, form, &out); err != nil {
		return domain.AuthorizationRequest{}, err
	}
	return out, nil
}

func (c *Client) List(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.AuthorizationRequest], error) {
	var page domain.Page[domain.AuthorizationRequest]
	if err := c.api.Get(ctx, listPath, params, &page); err != nil {
		return domain.Page[domain.AuthorizationRequest]{}, err
	}
	return page, nil
}

// Approve is an admin action.
func (c *Client) Approve(ctx context.Context, id string) (domain.AuthorizationRequest, error) {
	return c.decide(ctx, id, "approve")
}

// Reject is an admin action.
func (c *Client) Reject(ctx context.Context, id string) (domain.AuthorizationRequest, error) {
	return c.decide(ctx, id, "reject")
}

func (c *Client) decide(ctx context.Context, id, action string) (domain.AuthorizationRequest, error) {
	var out domain.AuthorizationRequest
	path := fmt.Sprintf("%s/%s/%s", listPath, url.PathEscape(id), action)
	if err := c.api.Post(ctx, path, nil, &out); err != nil {
		return domain.AuthorizationRequest{}, err
	}
	return out, nil
}
