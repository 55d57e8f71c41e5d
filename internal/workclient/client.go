// Package workclient maps the works endpoints.
package workclient

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/google/go-querystring/query"

	"musicworks/internal/apiclient"
	"musicworks/pkg/domain"
)

const (
	worksPath  = "/works"
	searchPath = "/works/search"
	uploadPath = "/works/upload"
)

// Client calls the works endpoints.
type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// FilePart is one blob sent as a "files" part.
type FilePart struct {
	Name string
	Body io.Reader
}

// UploadResult is the body returned by UploadFiles.
type UploadResult struct {
	Files []domain.WorkFile `json:"files"`
}

// Create submits a registration form built by the caller.
func (c *Client) Create(ctx context.Context, form *apiclient.Multipart) (domain.Work, error) {
	var work domain.Work
	if err := c.api.PostMultipart(ctx, worksPath, form, &work); err != nil {
		return domain.Work{}, err
	}
	return work, nil
}

func (c *Client) List(ctx context.Context, params domain.PaginationParams) (domain.Page[domain.Work], error) {
	var page domain.Page[domain.Work]
	if err := c.api.Get(ctx, worksPath, params, &page); err != nil {
		return domain.Page[domain.Work]{}, err
	}
	return page, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Work, error) {
	var work domain.Work
	if err := c.api.Get(ctx, workPath(id), nil, &work); err != nil {
		return domain.Work{}, err
	}
	return work, nil
}

// Update sends a partial update; unset fields are omitted from the body.
func (c *Client) Update(ctx context.Context, id string, update domain.WorkUpdate) (domain.Work, error) {
	var work domain.Work
	if err := c.api.Put(ctx, workPath(id), update, &work); err != nil {
		return domain.Work{}, err
	}
	return work, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.api.Delete(ctx, workPath(id), nil)
}

// Search merges filters and paging into one query; paging wins on a clash.
func (c *Client) Search(ctx context.Context, filters domain.SearchFilters, params domain.PaginationParams) (domain.Page[domain.Work], error) {
	q, err := mergeQuery(filters, params)
	if err != nil {
		return domain.Page[domain.Work]{}, err
	}
	var page domain.Page[domain.Work]
	if err := c.api.Get(ctx, searchPath, q, &page); err != nil {
		return domain.Page[domain.Work]{}, err
	}
	return page, nil
}

// UploadFiles attaches files, optionally to an existing work.
func (c *Client) UploadFiles(ctx context.Context, files []FilePart, workID string) (UploadResult, error) {
	form := apiclient.NewMultipart()
	for _, f := range files {
		form.File("files", f.Name, f.Body)
	}
	if workID != "" {
		form.Field("workId", workID)
	}
	var out UploadResult
	if err := c.api.PostMultipart(ctx, uploadPath, form, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}

func workPath(id string) string {
	return fmt.Sprintf("%s/%s", worksPath, url.PathEscape(id))
}

func mergeQuery(parts ...any) (url.Values, error) {
	merged := url.Values{}
	for _, p := range parts {
		values, err := query.Values(p)
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}
