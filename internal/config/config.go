package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by SESSION_STORAGE.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Session  SessionConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// BackendConfig points at the remote savings/auth API.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// SessionConfig configures the session store and bootstrapper.
type SessionConfig struct {
	Storage                 string
	FilePath                string
	FileKey                 string
	KeyPrefix               string
	CookieName              string
	CookieSecure            bool
	DefaultTTLSeconds       int
	MaxTTLSeconds           int
	BootstrapTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "savings-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001/api"), "/"),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 10),
		},
		Session: SessionConfig{
			Storage:                 strings.ToLower(getEnv("SESSION_STORAGE", StorageFile)),
			FilePath:                getEnv("SESSION_FILE_PATH", defaultSessionFile()),
			FileKey:                 os.Getenv("SESSION_FILE_KEY"),
			KeyPrefix:               getEnv("SESSION_KEY_PREFIX", "portal:"),
			CookieName:              getEnv("SESSION_COOKIE_NAME", "auth_token"),
			CookieSecure:            getEnvAsBool("SESSION_COOKIE_SECURE", false),
			DefaultTTLSeconds:       getEnvAsInt("SESSION_DEFAULT_TTL_SECONDS", 900),
			MaxTTLSeconds:           getEnvAsInt("SESSION_MAX_TTL_SECONDS", 86400),
			BootstrapTimeoutSeconds: getEnvAsInt("BOOTSTRAP_CALL_TIMEOUT_SECONDS", 5),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout bounds a single backend request.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// DefaultTTL is used when the backend does not declare expiresIn.
func (s SessionConfig) DefaultTTL() time.Duration {
	if s.DefaultTTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.DefaultTTLSeconds) * time.Second
}

// MaxTTL caps the cookie flag lifetime.
func (s SessionConfig) MaxTTL() time.Duration {
	if s.MaxTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.MaxTTLSeconds) * time.Second
}

// BootstrapTimeout bounds each who-am-I or refresh call made while bootstrapping.
func (s SessionConfig) BootstrapTimeout() time.Duration {
	if s.BootstrapTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.BootstrapTimeoutSeconds) * time.Second
}

func (s SessionConfig) validate() error {
	switch s.Storage {
	case StorageMemory, StorageFile, StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("invalid SESSION_STORAGE %q", s.Storage)
	}
	if s.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".portal", "session.json")
	}
	return filepath.Join(home, ".portal", "session.json")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
