package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"musicworks/internal/credentials"
)

func newTestClient(t *testing.T, srv *httptest.Server, creds credentials.Provider, onExpired func(context.Context)) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: srv.URL + "/", Credentials: creds, OnSessionExpired: onExpired})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func seededCreds(t *testing.T, access, refresh string) *credentials.MemoryStore {
	t.Helper()
	creds := credentials.NewMemoryStore()
	if err := creds.SetTokens(context.Background(), access, refresh); err != nil {
		t.Fatalf("seed creds: %v", err)
	}
	return creds
}

func TestGetAttachesBearerAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("authorization header = %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Fatalf("expected request id header")
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Fatalf("page query = %q", got)
		}
		if r.URL.Query().Has("sortBy") {
			t.Fatalf("empty sortBy must be omitted")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "w1"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, seededCreds(t, "tok", ""), nil)
	params := struct {
		Page   int    `url:"page,omitempty"`
		SortBy string `url:"sortBy,omitempty"`
	}{Page: 2}
	var out struct{ ID string }
	if err := c.Get(context.Background(), "/works", params, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.ID != "w1" {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil, nil)
	if err := c.Delete(context.Background(), "/works/1", nil); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestUnauthorizedRefreshesOnceAndReplays(t *testing.T) {
	var refreshCalls, workCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshCalls.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refreshToken"] != "refresh-1" {
				t.Fatalf("unexpected refresh body: %v", body)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
		case "/works":
			workCalls.Add(1)
			data, _ := io.ReadAll(r.Body)
			if string(data) != `{"title":"Song"}` {
				t.Fatalf("replayed body mismatch: %q", data)
			}
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "w1"})
		}
	}))
	defer srv.Close()

	creds := seededCreds(t, "stale", "refresh-1")
	c := newTestClient(t, srv, creds, nil)

	var out struct{ ID string }
	if err := c.Post(context.Background(), "/works", map[string]string{"title": "Song"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if out.ID != "w1" {
		t.Fatalf("unexpected body: %+v", out)
	}
	if refreshCalls.Load() != 1 || workCalls.Load() != 2 {
		t.Fatalf("refresh=%d work=%d, want 1 and 2", refreshCalls.Load(), workCalls.Load())
	}
	if tok, _ := creds.AccessToken(context.Background()); tok != "fresh" {
		t.Fatalf("expected refreshed token to be persisted, got %q", tok)
	}
	if rt, _ := creds.RefreshToken(context.Background()); rt != "refresh-1" {
		t.Fatalf("refresh token must be kept when not rotated, got %q", rt)
	}
}

type recordingCreds struct {
	*credentials.MemoryStore
	setAccess atomic.Int32
	setBoth   atomic.Int32
}

func (r *recordingCreds) SetAccessToken(ctx context.Context, access string) error {
	r.setAccess.Add(1)
	return r.MemoryStore.SetAccessToken(ctx, access)
}

func (r *recordingCreds) SetTokens(ctx context.Context, access, refresh string) error {
	r.setBoth.Add(1)
	return r.MemoryStore.SetTokens(ctx, access, refresh)
}

func TestRefreshPersistsOnlyWhatChanged(t *testing.T) {
	var rotate atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			body := map[string]string{"token": "fresh"}
			if rotate.Load() {
				body["refreshToken"] = "refresh-2"
			}
			_ = json.NewEncoder(w).Encode(body)
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	creds := &recordingCreds{MemoryStore: seededCreds(t, "stale", "refresh-1")}
	c := newTestClient(t, srv, creds, nil)
	if err := c.Get(context.Background(), "/works", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if creds.setAccess.Load() != 1 || creds.setBoth.Load() != 0 {
		t.Fatalf("unrotated refresh: setAccess=%d setTokens=%d", creds.setAccess.Load(), creds.setBoth.Load())
	}

	rotate.Store(true)
	_ = creds.MemoryStore.SetAccessToken(context.Background(), "stale")
	if err := c.Get(context.Background(), "/works", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if creds.setBoth.Load() != 1 {
		t.Fatalf("rotated refresh must store both tokens, got %d", creds.setBoth.Load())
	}
	if rt, _ := creds.RefreshToken(context.Background()); rt != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", rt)
	}
}

func TestSecondUnauthorizedPropagatesWithoutSecondRefresh(t *testing.T) {
	var refreshCalls, workCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "fresh", "refreshToken": "refresh-2"})
			return
		}
		workCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token revoked"}`))
	}))
	defer srv.Close()

	creds := seededCreds(t, "stale", "refresh-1")
	c := newTestClient(t, srv, creds, nil)

	err := c.Get(context.Background(), "/auth/me", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Token revoked" {
		t.Fatalf("expected 401 api error, got %v", err)
	}
	if refreshCalls.Load() != 1 || workCalls.Load() != 2 {
		t.Fatalf("refresh=%d calls=%d, want 1 and 2", refreshCalls.Load(), workCalls.Load())
	}
	if rt, _ := creds.RefreshToken(context.Background()); rt != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", rt)
	}
}

func TestMissingRefreshTokenReturnsOriginalError(t *testing.T) {
	var refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	expired := false
	c := newTestClient(t, srv, seededCreds(t, "stale", ""), func(context.Context) { expired = true })
	err := c.Get(context.Background(), "/works", nil, nil)
	if !IsUnauthorized(err) || err.Error() != "Unauthorized" {
		t.Fatalf("expected original 401, got %v", err)
	}
	if refreshCalls.Load() != 0 || expired {
		t.Fatalf("no refresh or expiry expected")
	}
}

func TestRefreshFailureClearsCredentialsAndExpires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Refresh token expired"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := seededCreds(t, "stale", "refresh-1")
	var expired atomic.Int32
	c := newTestClient(t, srv, creds, func(context.Context) { expired.Add(1) })

	err := c.Get(context.Background(), "/works", nil, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Refresh token expired" {
		t.Fatalf("expected refresh api error inside, got %v", err)
	}
	if expired.Load() != 1 {
		t.Fatalf("expected expiry hook once, got %d", expired.Load())
	}
	a, _ := creds.AccessToken(context.Background())
	r, _ := creds.RefreshToken(context.Background())
	if a != "" || r != "" {
		t.Fatalf("expected cleared credentials, got %q %q", a, r)
	}
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			<-release
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, seededCreds(t, "stale", "refresh-1"), nil)

	const n = 4
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Get(context.Background(), "/works", nil, nil)
		}()
	}
	for refreshCalls.Load() == 0 {
		// wait for the first exchange to start
		runtime.Gosched()
	}
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
	}
	if got := refreshCalls.Load(); got < 1 || got > n {
		t.Fatalf("unexpected refresh count %d", got)
	}
}

func TestCancelledCallerDoesNotExpireSharedRefresh(t *testing.T) {
	var refreshCalls, workCalls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			refreshCalls.Add(1)
			<-release
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
			return
		}
		workCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	creds := seededCreds(t, "stale", "refresh-1")
	var expired atomic.Int32
	c := newTestClient(t, srv, creds, func(context.Context) { expired.Add(1) })

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { errA <- c.Get(ctxA, "/works", nil, nil) }()
	for refreshCalls.Load() == 0 {
		runtime.Gosched()
	}

	errB := make(chan error, 1)
	go func() { errB <- c.Get(context.Background(), "/works", nil, nil) }()
	for workCalls.Load() < 2 {
		runtime.Gosched()
	}

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}
	close(release)

	if err := <-errB; err != nil {
		t.Fatalf("live caller: %v", err)
	}
	if expired.Load() != 0 {
		t.Fatalf("expiry hook must not run, got %d", expired.Load())
	}
	if tok, _ := creds.AccessToken(context.Background()); tok != "fresh" {
		t.Fatalf("expected refreshed token, got %q", tok)
	}
	if rt, _ := creds.RefreshToken(context.Background()); rt != "refresh-1" {
		t.Fatalf("refresh token must survive, got %q", rt)
	}
}

func TestNonUnauthorizedErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Invalid ISRC","code":"INVALID","field":"isrc"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, seededCreds(t, "tok", "refresh"), nil)
	err := c.Put(context.Background(), "/works/1", map[string]string{"isrc": "x"}, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != "INVALID" || apiErr.Field != "isrc" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if MessageOr(err, "Failed to update work") != "Invalid ISRC" {
		t.Fatalf("expected server message")
	}
	if MessageOr(errors.New("dial tcp: refused"), "Failed to update work") != "Failed to update work" {
		t.Fatalf("expected fallback for transport error")
	}
	if MessageOr(&APIError{Status: 500}, "Failed") != "Failed" {
		t.Fatalf("expected fallback for empty message")
	}
}

func TestPostMultipartReplaysBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "fresh"})
			return
		}
		calls.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("authors"); got != `["Ana"]` {
			t.Fatalf("authors field = %q", got)
		}
		fh := r.MultipartForm.File["files"]
		if len(fh) != 1 || fh[0].Filename != "song.mp3" {
			t.Fatalf("unexpected files: %v", fh)
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"w9"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, seededCreds(t, "stale", "refresh-1"), nil)
	form := NewMultipart().
		Field("title", "Song").
		JSONField("authors", []string{"Ana"}).
		File("files", "song.mp3", strings.NewReader("ID3"))
	var out struct{ ID string }
	if err := c.PostMultipart(context.Background(), "/works", form, &out); err != nil {
		t.Fatalf("post multipart: %v", err)
	}
	if out.ID != "w9" || calls.Load() != 2 {
		t.Fatalf("unexpected result id=%q calls=%d", out.ID, calls.Load())
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without base url")
	}
}
