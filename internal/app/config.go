package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// DevSecret is the token secret used when none is configured. Tokens signed
// with it are trivially forgeable; services log a warning when it is active.
const DevSecret = "dev-secret"

const defaultAddr = "0.0.0.0:8080"

// Config holds the configuration shared by the order and user services,
// loadable from environment variables (KART_ prefix), flags, or YAML files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	SecretKey     string `usage:"Shared token signing secret (KART_SECRET_KEY or SECRET_KEY)" flag:"secret-key"`
	Env           string `usage:"Deployment environment reported by the user service (KART_ENV or APP_ENV)"`
	DatabaseURL   string `usage:"Optional PostgreSQL URL for the product catalog (KART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	OrderIDPrefix string `default:"o-" usage:"Prefix of generated order IDs" flag:"order-id-prefix"`
	BcryptCost    int    `default:"10" usage:"bcrypt cost for password hashes" flag:"bcrypt-cost"`
	Graceful      GracefulConfig
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	base.EnvPrefix = "KART"
	base.Files = []string{"config.yaml", "/etc/kart/config.yaml"}
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}

	var cfg Config
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.OrderIDPrefix == "" {
		return nil, errors.New("order ID prefix must not be empty")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the unprefixed variables set by deployment
// platforms (SECRET_KEY, APP_ENV, DATABASE_URL, PORT) onto the config.
func (c *Config) applyPlatformDefaults() {
	if c.SecretKey == "" {
		c.SecretKey = os.Getenv("SECRET_KEY")
	}
	if c.SecretKey == "" {
		c.SecretKey = DevSecret
	}
	if c.Env == "" {
		c.Env = os.Getenv("APP_ENV")
	}
	if c.Env == "" {
		c.Env = "unknown"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// UsingDevSecret reports whether tokens are signed with DevSecret.
func (c *Config) UsingDevSecret() bool {
	return c.SecretKey == DevSecret
}
