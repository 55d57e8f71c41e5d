package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNoRefreshToken indicates no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrSessionExpired wraps a failed token refresh. Stored credentials have
	// already been cleared when it is returned.
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Code    string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 API error.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// MessageOr returns the server-supplied message carried by err, or fallback
// when there is none (transport failures, empty bodies).
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

func decodeAPIError(resp *http.Response) *APIError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
		Field   string `json:"field"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(data, &body)
	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = strings.TrimSpace(body.Error)
	}
	return &APIError{
		Status:  resp.StatusCode,
		Message: msg,
		Code:    strings.TrimSpace(body.Code),
		Field:   strings.TrimSpace(body.Field),
	}
}
