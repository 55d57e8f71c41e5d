package state

import (
	"context"
	"errors"

	"musicworks/internal/apiclient"
	"musicworks/internal/credentials"
	"musicworks/pkg/domain"
)

// AuthService is the subset of authclient.Client the auth store needs.
type AuthService interface {
	Login(ctx context.Context, creds domain.LoginCredentials) (domain.AuthResponse, error)
	Register(ctx context.Context, data domain.RegisterData) (domain.AuthResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (domain.User, error)
	Token(ctx context.Context) (string, error)
}

type AuthState struct {
	User            *domain.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

const (
	msgLogin          = "Login failed"
	msgRegister       = "Registration failed"
	msgRestoreSession = "Failed to restore session"
	// MsgSessionExpired is set by Expire.
	MsgSessionExpired = "Session expired, please sign in again"
)

// AuthStore owns the signed-in user.
type AuthStore struct {
	*hub[AuthState]
	svc AuthService
}

func NewAuthStore(svc AuthService) *AuthStore {
	return &AuthStore{
		hub: newHub(AuthState{}, cloneAuthState, func(s *AuthState, v bool) { s.IsLoading = v }),
		svc: svc,
	}
}

func cloneAuthState(s AuthState) AuthState {
	s.User = cloneUserPtr(s.User)
	return s
}

func clearAuthError(st *AuthState) { st.Error = "" }

func (s *AuthStore) Login(ctx context.Context, creds domain.LoginCredentials) (domain.User, error) {
	return s.signIn(ctx, msgLogin, func() (domain.AuthResponse, error) {
		return s.svc.Login(ctx, creds)
	})
}

func (s *AuthStore) Register(ctx context.Context, data domain.RegisterData) (domain.User, error) {
	return s.signIn(ctx, msgRegister, func() (domain.AuthResponse, error) {
		return s.svc.Register(ctx, data)
	})
}

func (s *AuthStore) signIn(ctx context.Context, fallback string, call func() (domain.AuthResponse, error)) (domain.User, error) {
	// a sign-in supersedes any session restore still in flight
	ticket := s.begin("session", clearAuthError)
	resp, err := call()
	s.finish(ctx, "session", ticket, func(st *AuthState) {
		if err != nil {
			st.Error = authErrorMessage(err, fallback)
			return
		}
		user := resp.User
		st.User = &user
		st.IsAuthenticated = true
	})
	if err != nil {
		return domain.User{}, err
	}
	return resp.User, nil
}

// Logout ends the session. Local state is cleared whatever the server says.
func (s *AuthStore) Logout(ctx context.Context) error {
	ticket := s.begin("session", clearAuthError)
	err := s.svc.Logout(ctx)
	s.finish(ctx, "session", ticket, func(st *AuthState) {
		st.User = nil
		st.IsAuthenticated = false
	})
	return err
}

// RestoreSession loads the current user when a token is stored. Any failure
// leaves the store signed out.
func (s *AuthStore) RestoreSession(ctx context.Context) {
	ticket := s.begin("session", clearAuthError)
	token, err := s.svc.Token(ctx)
	if err != nil || token == "" {
		s.finish(ctx, "session", ticket, func(st *AuthState) {
			st.User = nil
			st.IsAuthenticated = false
			if err != nil {
				st.Error = msgRestoreSession
			}
		})
		return
	}
	user, err := s.svc.CurrentUser(ctx)
	s.finish(ctx, "session", ticket, func(st *AuthState) {
		if err != nil {
			st.User = nil
			st.IsAuthenticated = false
			st.Error = authErrorMessage(err, msgRestoreSession)
			return
		}
		st.User = &user
		st.IsAuthenticated = true
	})
}

// Expire signs the store out after the HTTP client gave up refreshing.
func (s *AuthStore) Expire() {
	s.update(func(st *AuthState) {
		st.User = nil
		st.IsAuthenticated = false
		st.Error = MsgSessionExpired
	})
}

// authErrorMessage keeps the message Expire set when err is the failed
// refresh that triggered it.
func authErrorMessage(err error, fallback string) string {
	if errors.Is(err, apiclient.ErrSessionExpired) {
		return MsgSessionExpired
	}
	return apiclient.MessageOr(err, fallback)
}

func (s *AuthStore) ClearError() {
	s.update(clearAuthError)
}

// Session returns the claims of the stored access token.
func (s *AuthStore) Session(ctx context.Context) (credentials.Claims, error) {
	token, err := s.svc.Token(ctx)
	if err != nil {
		return credentials.Claims{}, err
	}
	return credentials.ParseClaims(token)
}
