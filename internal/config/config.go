// Package config loads the storefront runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App       AppConfig       `envconfig:"APP"`
	Server    ServerConfig    `envconfig:"SERVER"`
	Session   SessionConfig   `envconfig:"SESSION"`
	Storage   StorageConfig   `envconfig:"STORAGE"`
	Catalog   CatalogConfig   `envconfig:"CATALOG"`
	Templates TemplatesConfig `envconfig:"TEMPLATES"`
	Locales   LocalesConfig   `envconfig:"LOCALES"`
}

// Load reads optional .env files, then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) > 0 {
		// Missing files are fine; the process environment still applies.
		_ = godotenv.Load(files...)
	}
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"ENV" default:"prod"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	PublicDir       string        `envconfig:"PUBLIC_DIR" default:"public"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"COOKIE_NAME" default:"storefront_session"`
	HashKey    string        `envconfig:"HASH_KEY"`
	BlockKey   string        `envconfig:"BLOCK_KEY"`
	MaxAge     time.Duration `envconfig:"MAX_AGE" default:"720h"`
	Secure     bool          `envconfig:"SECURE" default:"false"`
}

type StorageConfig struct {
	Backend string      `envconfig:"BACKEND" default:"memory"`
	Dir     string      `envconfig:"DIR" default:"data/carts"`
	Redis   RedisConfig `envconfig:"REDIS"`
	SQL     SQLConfig   `envconfig:"SQL"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case "", "memory", "file":
		return nil
	case "redis":
		if s.Redis.URL == "" && s.Redis.Address == "" {
			return fmt.Errorf("config: %s_STORAGE_REDIS_URL or %s_STORAGE_REDIS_ADDR is required for the redis backend", EnvPrefix, EnvPrefix)
		}
		return nil
	case "sql":
		if strings.TrimSpace(s.SQL.DSN) == "" {
			return fmt.Errorf("config: %s_STORAGE_SQL_DSN is required for the sql backend", EnvPrefix)
		}
		return nil
	default:
		return fmt.Errorf("config: unknown storage backend %q", s.Backend)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	Address      string        `envconfig:"ADDR"`
	Password     string        `envconfig:"PASSWORD"`
	DB           int           `envconfig:"DB" default:"0"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	TTL          time.Duration `envconfig:"TTL" default:"720h"`
	Namespace    string        `envconfig:"NAMESPACE" default:"storefront"`
}

type SQLConfig struct {
	Driver string `envconfig:"DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DSN"`
}

type CatalogConfig struct {
	Path    string `envconfig:"FILE" default:"catalog/products.yaml"`
	PerView int    `envconfig:"PER_VIEW" default:"4"`
}

type TemplatesConfig struct {
	Dir string `envconfig:"DIR" default:"templates"`
}

type LocalesConfig struct {
	Dir       string   `envconfig:"DIR" default:"locales"`
	Default   string   `envconfig:"DEFAULT" default:"en"`
	Supported []string `envconfig:"SUPPORTED" default:"en,hi"`
}
