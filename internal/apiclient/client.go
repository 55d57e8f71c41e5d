// Package apiclient is the HTTP wrapper shared by every service client. It
// attaches the bearer token, tags requests with a request id, and recovers
// from a 401 by exchanging the refresh token once and replaying the request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"golang.org/x/sync/singleflight"

	"musicworks/internal/credentials"
	"musicworks/internal/util"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultRefreshPath = "/auth/refresh"
	defaultUserAgent   = "musicworks-cli"
)

// Config configures New.
type Config struct {
	BaseURL string
	// Timeout bounds each HTTP exchange. Defaults to 10s.
	Timeout     time.Duration
	Credentials credentials.Provider
	RefreshPath string
	// OnSessionExpired runs after a failed refresh has cleared the stored
	// tokens. The CLI uses it to send the user back to login.
	OnSessionExpired func(ctx context.Context)
	HTTPClient       *http.Client
	UserAgent        string
}

// Client sends authenticated JSON and multipart requests to the API.
type Client struct {
	baseURL     string
	timeout     time.Duration
	refreshPath string
	userAgent   string
	httpClient  *http.Client
	creds       credentials.Provider
	onExpired   func(ctx context.Context)
	refreshes   singleflight.Group
}

// New builds a client. Without Credentials an in-memory provider is used.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	refreshPath := strings.TrimSpace(cfg.RefreshPath)
	if refreshPath == "" {
		refreshPath = defaultRefreshPath
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	creds := cfg.Credentials
	if creds == nil {
		creds = credentials.NewMemoryStore()
	}

	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		*httpClient = *cfg.HTTPClient
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}
	httpClient.Transport = util.NewLoggingTransport("apiclient", httpClient.Transport)

	return &Client{
		baseURL:     base,
		timeout:     timeout,
		refreshPath: refreshPath,
		userAgent:   userAgent,
		httpClient:  httpClient,
		creds:       creds,
		onExpired:   cfg.OnSessionExpired,
	}, nil
}

// Credentials returns the provider the client reads tokens from.
func (c *Client) Credentials() credentials.Provider {
	return c.creds
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get decodes the response of GET path into out. params, when non-nil, is a
// struct with url tags encoded as the query string.
func (c *Client) Get(ctx context.Context, path string, params any, out any) error {
	q, err := encodeQuery(params)
	if err != nil {
		return err
	}
	return c.send(ctx, request{method: http.MethodGet, path: path, query: q}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, request{method: http.MethodDelete, path: path}, out)
}

// PostMultipart sends form as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, path string, form *Multipart, out any) error {
	body, contentType, err := form.finish()
	if err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	return c.send(ctx, request{method: http.MethodPost, path: path, body: body, contentType: contentType}, out)
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	r := request{method: method, path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		r.body = data
		r.contentType = "application/json"
	}
	return c.send(ctx, r, out)
}

func (c *Client) send(ctx context.Context, r request, out any) error {
	ctx, _ = util.EnsureRequestID(ctx)

	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read access token: %w", err)
	}
	resp, err := c.roundTrip(ctx, r, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return decodeResponse(resp, out)
	}

	original := decodeAPIError(resp)
	resp.Body.Close()

	fresh, err := c.refresh(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, ErrNoRefreshToken) {
			return original
		}
		return err
	}

	// replayed exactly once; a second 401 is returned as is
	resp, err = c.roundTrip(ctx, r, fresh)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func (c *Client) roundTrip(ctx context.Context, r request, token string) (*http.Response, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(util.RequestIDHeader, util.RequestIDFromContext(ctx))
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

// refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share one exchange, which outlives any single caller's
// cancellation.
func (c *Client) refresh(ctx context.Context) (string, error) {
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.exchangeRefreshToken(rctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	logger := util.LoggerFromContext(ctx)

	refreshToken, err := c.creds.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if strings.TrimSpace(refreshToken) == "" {
		return "", ErrNoRefreshToken
	}

	token, rotated, err := c.postRefresh(ctx, refreshToken)
	if err != nil {
		logger.Warn("token refresh failed", "err", err)
		if clearErr := c.creds.Clear(ctx); clearErr != nil {
			logger.Error("clear credentials failed", "err", clearErr)
		}
		if c.onExpired != nil {
			c.onExpired(ctx)
		}
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if rotated == "" {
		err = c.creds.SetAccessToken(ctx, token)
	} else {
		err = c.creds.SetTokens(ctx, token, rotated)
	}
	if err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}
	logger.Debug("access token refreshed")
	return token, nil
}

// postRefresh calls the refresh endpoint directly, bypassing send, so a 401
// from it can never trigger another refresh.
func (c *Client) postRefresh(ctx context.Context, refreshToken string) (string, string, error) {
	data, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", "", err
	}
	r := request{method: http.MethodPost, path: c.refreshPath, body: data, contentType: "application/json"}
	resp, err := c.roundTrip(ctx, r, "")
	if err != nil {
		return "", "", err
	}
	var out refreshResponse
	if err := decodeResponse(resp, &out); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", "", errors.New("refresh response missing token")
	}
	return out.Token, out.RefreshToken, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func encodeQuery(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return p, nil
	}
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return values, nil
}
