// Package config loads the musicworks CLI configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigPathEnv = "MUSICWORKS_CONFIG"

	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"

	defaultAPIBaseURL     = "http://localhost:3000/api"
	defaultRequestTimeout = "30s"
	defaultCallbackAddr   = "127.0.0.1:8787"
	defaultCallbackPath   = "/payment/confirmation"
	defaultMaxFileBytes   = 50 << 20
	defaultMaxFiles       = 5

	// the work registration form takes more files than a generic upload
	defaultRegistrationMaxFiles = 10
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL     string            `yaml:"apiBaseURL"`
	RequestTimeout string            `yaml:"requestTimeout"`
	LogLevel       string            `yaml:"logLevel"`
	LogFormat      string            `yaml:"logFormat"`
	Credentials    CredentialsConfig `yaml:"credentials"`
	Upload         UploadConfig      `yaml:"upload"`
	Callback       CallbackConfig    `yaml:"callback"`
	ObjectStore    ObjectStoreConfig `yaml:"objectStore"`
}

type CredentialsConfig struct {
	// Backend is bolt, redis or memory.
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisPrefix   string `yaml:"redisPrefix"`
	// EncryptionKey seals stored tokens when set.
	EncryptionKey string `yaml:"encryptionKey"`
}

type UploadConfig struct {
	AllowedExtensions []string `yaml:"allowedExtensions"`
	MaxFileBytes      int64    `yaml:"maxFileBytes"`
	MaxFiles          int      `yaml:"maxFiles"`

	// RegistrationMaxFiles caps files attached when registering a work.
	RegistrationMaxFiles int `yaml:"registrationMaxFiles"`
}

type CallbackConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	Path       string `yaml:"path"`
}

type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Enabled reports whether s3:// references can be resolved.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// DefaultPath is ~/.config/musicworks/config.yaml, or config.yaml in the
// working directory when the home directory is unknown.
func DefaultPath() string {
	if v := strings.TrimSpace(os.Getenv(ConfigPathEnv)); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "musicworks", "config.yaml")
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "musicworks.db"
	}
	return filepath.Join(dir, "musicworks", "credentials.db")
}

// Load reads config from path (defaults to DefaultPath). A missing file
// yields the defaults; environment variables override both.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("MUSICWORKS_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("MUSICWORKS_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("MUSICWORKS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MUSICWORKS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("MUSICWORKS_CREDENTIALS_BACKEND"); v != "" {
		cfg.Credentials.Backend = strings.TrimSpace(v)
	}
	if v := os.Getenv("MUSICWORKS_CREDENTIALS_PATH"); v != "" {
		cfg.Credentials.Path = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Credentials.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Credentials.RedisPassword = v
	}
	if v := os.Getenv("MUSICWORKS_ENCRYPTION_KEY"); v != "" {
		cfg.Credentials.EncryptionKey = v
	}
	if v := os.Getenv("MUSICWORKS_ALLOWED_EXTENSIONS"); v != "" {
		cfg.Upload.AllowedExtensions = splitCSV(v)
	}
	if v := os.Getenv("MUSICWORKS_MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.Upload.MaxFileBytes = n
		}
	}
	if v := os.Getenv("MUSICWORKS_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Upload.MaxFiles = n
		}
	}
	if v := os.Getenv("MUSICWORKS_REGISTRATION_MAX_FILES"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Upload.RegistrationMaxFiles = n
		}
	}
	if v := os.Getenv("MUSICWORKS_CALLBACK_ADDR"); v != "" {
		cfg.Callback.ListenAddr = strings.TrimSpace(v)
	}
	if v := os.Getenv("MUSICWORKS_OBJECT_STORE_ENDPOINT"); v != "" {
		cfg.ObjectStore.Endpoint = strings.TrimSpace(v)
	}
	if v := os.Getenv("MUSICWORKS_OBJECT_STORE_ACCESS_KEY"); v != "" {
		cfg.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("MUSICWORKS_OBJECT_STORE_SECRET_KEY"); v != "" {
		cfg.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("MUSICWORKS_OBJECT_STORE_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.ObjectStore.UseSSL = b
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if strings.TrimSpace(cfg.RequestTimeout) == "" {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	cfg.Credentials.Backend = strings.ToLower(strings.TrimSpace(cfg.Credentials.Backend))
	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = BackendBolt
	}
	if cfg.Credentials.Backend == BackendBolt && strings.TrimSpace(cfg.Credentials.Path) == "" {
		cfg.Credentials.Path = defaultCredentialsPath()
	}
	if cfg.Upload.MaxFileBytes == 0 {
		cfg.Upload.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.Upload.MaxFiles == 0 {
		cfg.Upload.MaxFiles = defaultMaxFiles
	}
	if cfg.Upload.RegistrationMaxFiles == 0 {
		cfg.Upload.RegistrationMaxFiles = defaultRegistrationMaxFiles
	}
	if strings.TrimSpace(cfg.Callback.ListenAddr) == "" {
		cfg.Callback.ListenAddr = defaultCallbackAddr
	}
	if strings.TrimSpace(cfg.Callback.Path) == "" {
		cfg.Callback.Path = defaultCallbackPath
	}
}

func validateConfig(cfg FileConfig) error {
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return errors.New("config: apiBaseURL must be an http(s) URL (set in config.yaml or MUSICWORKS_API_BASE_URL)")
	}
	if _, err := cfg.Timeout(); err != nil {
		return err
	}
	switch cfg.Credentials.Backend {
	case BackendBolt, BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(cfg.Credentials.RedisAddr) == "" {
			return errors.New("config: credentials.redisAddr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown credentials backend %q (bolt, redis or memory)", cfg.Credentials.Backend)
	}
	if cfg.Upload.MaxFileBytes < 0 || cfg.Upload.MaxFiles < 0 || cfg.Upload.RegistrationMaxFiles < 0 {
		return errors.New("config: upload limits must be >= 0")
	}
	if !strings.HasPrefix(cfg.Callback.Path, "/") {
		return errors.New("config: callback.path must start with /")
	}
	if cfg.ObjectStore.Enabled() && (cfg.ObjectStore.AccessKey == "" || cfg.ObjectStore.SecretKey == "") {
		return errors.New("config: objectStore accessKey and secretKey are required with an endpoint")
	}
	return nil
}

// Timeout parses RequestTimeout.
func (c FileConfig) Timeout() (time.Duration, error) {
	dur, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid requestTimeout duration: %w", err)
	}
	if dur <= 0 {
		return 0, errors.New("config: requestTimeout must be positive")
	}
	return dur, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
