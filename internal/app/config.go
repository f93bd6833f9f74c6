package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (POS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string        `usage:"Redis URL for the cart cache; carts stay in memory when empty (POS_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	CartTTL     time.Duration `default:"168h" usage:"Lifetime of a cached cart" flag:"cart-ttl"`
	TokenPepper string        `usage:"HMAC pepper for session token hashing (POS_TOKEN_PEPPER)" flag:"token-pepper"`
	Timezone    string        `default:"Local" usage:"IANA time zone for report and expense dates"`
	Dev         bool          `default:"false" usage:"Development mode: no HSTS header"`
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"300" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set POS_DATABASE_URL or DATABASE_URL")
	}
	if c.TokenPepper == "" {
		return errors.New("token pepper is required: set POS_TOKEN_PEPPER")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "timezone %q", c.Timezone)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
