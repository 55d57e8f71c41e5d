// Package app wires configuration, credential storage, the API client and the
// state stores into one object for the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"musicworks/internal/adminclient"
	"musicworks/internal/apiclient"
	"musicworks/internal/authclient"
	"musicworks/internal/authzclient"
	"musicworks/internal/checkout"
	"musicworks/internal/config"
	"musicworks/internal/credentials"
	"musicworks/internal/filesource"
	"musicworks/internal/paymentclient"
	"musicworks/internal/ratelimit"
	"musicworks/internal/registration"
	"musicworks/internal/state"
	"musicworks/internal/upload"
	"musicworks/internal/workclient"
)

const (
	callbackRequestsPerMinute = 30
	callbackLimiterPrefix     = "musicworks:ratelimit:callback"
)

// Config holds runtime configuration for the application. Credentials,
// Objects and HTTPClient override what File would build.
type Config struct {
	File        config.FileConfig
	Credentials credentials.Provider
	Objects     filesource.ObjectStore
	HTTPClient  *http.Client
}

// App is the client core shared by every CLI command.
type App struct {
	cfg config.FileConfig

	API   *apiclient.Client
	Creds credentials.Provider

	AuthClient *authclient.Client
	WorkClient *workclient.Client

	Auth          *state.AuthStore
	Works         *state.WorkStore
	Payments      *state.PaymentStore
	Authorization *state.AuthorizationStore
	Admin         *state.AdminStore

	Files     *filesource.Resolver
	Confirmer *checkout.Confirmer

	closers []func() error
}

func New(cfg Config) (*App, error) {
	timeout, err := cfg.File.Timeout()
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg.File}

	creds := cfg.Credentials
	if creds == nil {
		creds, err = a.openCredentials()
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Creds = creds

	api, err := apiclient.New(apiclient.Config{
		BaseURL:     cfg.File.APIBaseURL,
		Timeout:     timeout,
		Credentials: creds,
		HTTPClient:  cfg.HTTPClient,
		OnSessionExpired: func(ctx context.Context) {
			slog.WarnContext(ctx, "session expired")
			if a.Auth != nil {
				a.Auth.Expire()
			}
		},
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	a.API = api

	a.AuthClient = authclient.NewClient(api)
	a.WorkClient = workclient.NewClient(api)
	a.Auth = state.NewAuthStore(a.AuthClient)
	a.Works = state.NewWorkStore(a.WorkClient)
	a.Payments = state.NewPaymentStore(paymentclient.NewClient(api))
	a.Authorization = state.NewAuthorizationStore(authzclient.NewClient(api))
	a.Admin = state.NewAdminStore(adminclient.NewClient(api))
	a.Confirmer = checkout.NewConfirmer(a.Payments)

	objects := cfg.Objects
	if objects == nil && cfg.File.ObjectStore.Enabled() {
		o := cfg.File.ObjectStore
		objects, err = filesource.NewMinioStore(o.Endpoint, o.AccessKey, o.SecretKey, o.UseSSL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}
	a.Files = filesource.NewResolver(objects)
	return a, nil
}

func (a *App) openCredentials() (credentials.Provider, error) {
	c := a.cfg.Credentials
	var provider credentials.Provider
	switch c.Backend {
	case config.BackendMemory:
		provider = credentials.NewMemoryStore()
	case config.BackendRedis:
		store := credentials.NewRedisStore(credentials.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			Prefix:   c.RedisPrefix,
		})
		a.closers = append(a.closers, store.Close)
		provider = store
	case config.BackendBolt, "":
		store, err := credentials.OpenBolt(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open credential store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		provider = store
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", c.Backend)
	}
	if c.EncryptionKey == "" {
		return provider, nil
	}
	key, err := credentials.ParseKey(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("parse encryption key: %w", err)
	}
	sealed, err := credentials.NewSealed(provider, key)
	if err != nil {
		return nil, fmt.Errorf("seal credential store: %w", err)
	}
	return sealed, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.FileConfig {
	return a.cfg
}

// UploadConfig applies the configured limits to the default selector settings.
func (a *App) UploadConfig() upload.Config {
	cfg := upload.DefaultConfig()
	a.applyUploadLimits(&cfg, a.cfg.Upload.MaxFiles)
	return cfg
}

// RegistrationUploadConfig is UploadConfig with the registration form's
// file count.
func (a *App) RegistrationUploadConfig() upload.Config {
	cfg := registration.FileConfig()
	a.applyUploadLimits(&cfg, a.cfg.Upload.RegistrationMaxFiles)
	return cfg
}

func (a *App) applyUploadLimits(cfg *upload.Config, maxFiles int) {
	u := a.cfg.Upload
	if len(u.AllowedExtensions) > 0 {
		cfg.AllowedExtensions = u.AllowedExtensions
	}
	if u.MaxFileBytes > 0 {
		cfg.MaxFileBytes = u.MaxFileBytes
	}
	if maxFiles > 0 {
		cfg.MaxFiles = maxFiles
	}
}

// NewCallbackServer binds the payment return route on the configured
// loopback address.
func (a *App) NewCallbackServer() (*checkout.CallbackServer, error) {
	limiter, err := a.callbackLimiter()
	if err != nil {
		return nil, err
	}
	return checkout.NewCallbackServer(checkout.ServerConfig{
		Addr:      a.cfg.Callback.ListenAddr,
		Path:      a.cfg.Callback.Path,
		Confirmer: a.Confirmer,
		Limiter:   limiter,
	})
}

func (a *App) callbackLimiter() (ratelimit.Limiter, error) {
	c := a.cfg.Credentials
	if c.Backend == config.BackendRedis {
		limiter, err := ratelimit.NewRedisLimiter(c.RedisAddr, c.RedisPassword, callbackLimiterPrefix, callbackRequestsPerMinute, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init callback limiter: %w", err)
		}
		a.closers = append(a.closers, limiter.Close)
		return limiter, nil
	}
	return ratelimit.NewMemoryLimiter(callbackRequestsPerMinute, time.Minute)
}

// Close releases the credential store and any limiter connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
