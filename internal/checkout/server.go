package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"musicworks/internal/ratelimit"
	"musicworks/internal/util"
)

const (
	DefaultCallbackAddr = "127.0.0.1:0"
	DefaultCallbackPath = "/payment/confirmation"
)

var ErrNotLoopback = errors.New("callback address must be a loopback address")

type ServerConfig struct {
	Addr      string
	Path      string
	Confirmer *Confirmer
	// Limiter caps redirects per client address. Nil disables the check.
	Limiter ratelimit.Limiter
}

// CallbackServer receives the provider redirect on a loopback address and
// hands each outcome to Await.
type CallbackServer struct {
	confirmer *Confirmer
	limiter   ratelimit.Limiter
	path      string
	listener  net.Listener
	srv       *http.Server
	results   chan Result
}

// NewCallbackServer binds the listener; Serve starts handling requests.
func NewCallbackServer(cfg ServerConfig) (*CallbackServer, error) {
	if cfg.Confirmer == nil {
		return nil, errors.New("confirmer is required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	if err := requireLoopback(addr); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = DefaultCallbackPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s := &CallbackServer{
		confirmer: cfg.Confirmer,
		limiter:   cfg.Limiter,
		path:      path,
		listener:  ln,
		results:   make(chan Result, 1),
	}
	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the confirmation route with request id, access log and
// security headers applied.
func (s *CallbackServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleConfirmation)
	return util.WithRequestID(util.WithRequestLog("checkout", util.WithSecurityHeaders(mux)))
}

// URL is the address to register as the provider's return URL.
func (s *CallbackServer) URL() string {
	return "http://" + s.listener.Addr().String() + s.path
}

// Serve blocks until Shutdown is called.
func (s *CallbackServer) Serve() error {
	slog.Info("payment callback listening", "url", s.URL())
	if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve callback: %w", err)
	}
	return nil
}

// Shutdown stops the server and releases the listener even if Serve was
// never called.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

// Await returns the next confirmation outcome.
func (s *CallbackServer) Await(ctx context.Context) (Result, error) {
	select {
	case res := <-s.results:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *CallbackServer) handleConfirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.limiter != nil && !s.limiter.Allow(r.Context(), remoteHost(r)) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	res := s.confirmer.Handle(r.Context(), ParseReturn(r.URL.Query()))
	select {
	case s.results <- res:
	default:
		// an earlier outcome has not been collected yet
		util.LoggerFromContext(r.Context()).Debug("payment outcome dropped", "payment_id", res.PaymentID, "outcome", res.Outcome)
	}
	status := http.StatusOK
	if res.PaymentID == "" {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requireLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parse callback address: %w", err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotLoopback, addr)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
