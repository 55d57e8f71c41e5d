package util

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// WithRequestLog emits a structured log for each inbound HTTP request.
func WithRequestLog(component string, next http.Handler) http.Handler {
	component = normalizeComponent(component)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []any{
			"component", component,
			"direction", "inbound",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		attrs = append(attrs, requestIDAttr(r.Context(), RequestIDFromRequest(r))...)
		LoggerFromContext(r.Context()).Info("http_request", attrs...)
	})
}

// LoggingTransport logs every outbound request at debug level and transport
// failures at warn.
type LoggingTransport struct {
	Component string
	Base      http.RoundTripper
}

// NewLoggingTransport wraps base, or http.DefaultTransport when base is nil.
func NewLoggingTransport(component string, base http.RoundTripper) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &LoggingTransport{Component: normalizeComponent(component), Base: base}
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	logger := LoggerFromContext(req.Context())
	attrs := []any{
		"component", normalizeComponent(t.Component),
		"direction", "outbound",
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	attrs = append(attrs, requestIDAttr(req.Context(), req.Header.Get(RequestIDHeader))...)
	if err != nil {
		logger.Warn("http_request", append(attrs, "err", err)...)
		return nil, err
	}
	logger.Debug("http_request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

// requestIDAttr returns the request_id attribute unless the context logger
// set up by ContextWithRequestID already carries it.
func requestIDAttr(ctx context.Context, id string) []any {
	if id == "" || RequestIDFromContext(ctx) == id {
		return nil
	}
	return []any{"request_id", id}
}

func normalizeComponent(component string) string {
	component = strings.TrimSpace(component)
	if component == "" {
		return "unknown"
	}
	return component
}

var _ http.RoundTripper = (*LoggingTransport)(nil)
