package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWidget is the widget used when a form does not name one
const DefaultWidget = "default"

// DefaultVerifyURL is the Cloudflare Turnstile siteverify endpoint
const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Config holds the application's configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	TestMode bool   `yaml:"test_mode"`
	AdminID  int64  `yaml:"admin_id"`

	Database  Database  `yaml:"database"`
	Session   Session   `yaml:"session"`
	Turnstile Turnstile `yaml:"turnstile"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Log       Log       `yaml:"log"`
	TLS       TLS       `yaml:"tls"`
}

type Database struct {
	// DSN is either a postgres:// URL or a sqlite path (optionally prefixed with sqlite://)
	DSN string `yaml:"dsn"`
}

type Session struct {
	CookieName string        `yaml:"cookie_name"`
	SecretKey  string        `yaml:"secret_key"`
	Lifetime   time.Duration `yaml:"lifetime"`
	Secure     bool          `yaml:"secure"`
}

// Widget is a named site/secret key pair for the challenge service
type Widget struct {
	SiteKey   string `yaml:"site_key"`
	SecretKey string `yaml:"secret_key"`
}

type Turnstile struct {
	VerifyURL   string            `yaml:"verify_url"`
	Timeout     time.Duration     `yaml:"timeout"`
	Widgets     map[string]Widget `yaml:"widgets"`
	ProxyHeader string            `yaml:"proxy_header"`
	TrustedIPv4 []string          `yaml:"trusted_ipv4"`
	TrustedIPv6 []string          `yaml:"trusted_ipv6"`
	// Files with one CIDR per line, merged with the inline lists
	TrustedIPv4File string `yaml:"trusted_ipv4_file"`
	TrustedIPv6File string `yaml:"trusted_ipv6_file"`
}

type RateLimit struct {
	Attempts  int           `yaml:"attempts"`
	Window    time.Duration `yaml:"window"`
	BlockTime time.Duration `yaml:"block_time"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type TLS struct {
	Enabled bool   `yaml:"enabled"`
	CertDir string `yaml:"cert_dir"`
}

// Default returns a configuration usable for local development
func Default() *Config {
	return &Config{
		Listen:  "localhost:8080",
		AdminID: 1,
		Database: Database{
			DSN: "./blog.db",
		},
		Session: Session{
			CookieName: "session",
		},
		Turnstile: Turnstile{
			VerifyURL:   DefaultVerifyURL,
			Timeout:     5 * time.Second,
			Widgets:     map[string]Widget{},
			ProxyHeader: "CF-Connecting-IP",
		},
		RateLimit: RateLimit{
			Attempts:  5,
			Window:    15 * time.Minute,
			BlockTime: 15 * time.Minute,
		},
		Log: Log{
			Level: "info",
		},
		TLS: TLS{
			CertDir: "./certs",
		},
	}
}

// Load reads configuration from the specified YAML file on top of the
// defaults, then applies environment overrides. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BLOG_LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := lookup("BLOG_DB_DSN"); ok {
		c.Database.DSN = v
	}
	if v, ok := lookup("BLOG_SECRET_KEY"); ok {
		c.Session.SecretKey = v
	}
	if v, ok := lookup("BLOG_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("BLOG_TEST_MODE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BLOG_TEST_MODE: %w", err)
		}
		c.TestMode = b
	}
	if v, ok := lookup("BLOG_ADMIN_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BLOG_ADMIN_ID: %w", err)
		}
		c.AdminID = id
	}

	// Credentials for the default widget
	siteKey, hasSite := lookup("BLOG_TURNSTILE_SITE_KEY")
	secretKey, hasSecret := lookup("BLOG_TURNSTILE_SECRET_KEY")
	if hasSite || hasSecret {
		if c.Turnstile.Widgets == nil {
			c.Turnstile.Widgets = map[string]Widget{}
		}
		w := c.Turnstile.Widgets[DefaultWidget]
		if hasSite {
			w.SiteKey = siteKey
		}
		if hasSecret {
			w.SecretKey = secretKey
		}
		c.Turnstile.Widgets[DefaultWidget] = w
	}
	return nil
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.AdminID <= 0 {
		errs = append(errs, fmt.Errorf("admin_id must be positive, got %d", c.AdminID))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session cookie name is required"))
	}
	if c.Session.Lifetime < 0 {
		errs = append(errs, errors.New("session lifetime cannot be negative"))
	}
	if c.Turnstile.Timeout <= 0 {
		errs = append(errs, errors.New("turnstile timeout must be positive"))
	}
	if c.Turnstile.VerifyURL == "" {
		errs = append(errs, errors.New("turnstile verify_url is required"))
	}
	if !c.TestMode {
		if w, ok := c.Turnstile.Widgets[DefaultWidget]; !ok || w.SecretKey == "" {
			errs = append(errs, errors.New("turnstile widget \"default\" needs a secret_key unless test_mode is enabled"))
		}
	}
	if c.RateLimit.Attempts <= 0 {
		errs = append(errs, errors.New("rate_limit attempts must be positive"))
	}
	return errors.Join(errs...)
}
