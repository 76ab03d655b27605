// Package config loads the qpick server configuration from defaults, an
// optional YAML file and QPICK_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`
	// RedisURL selects Redis storage and pubsub; empty keeps state in memory.
	RedisURL string `yaml:"redis_url"`
	// SessionSecret signs session cookies.
	SessionSecret string `yaml:"session_secret"`
	// Locale is the default catalog locale.
	Locale string `yaml:"locale"`
	// LocaleDir holds extra YAML catalogs loaded over the built-in ones.
	LocaleDir string `yaml:"locale_dir"`
	// CatalogPath is where a completed checkout navigates.
	CatalogPath string `yaml:"catalog_path"`
	// CloseDelay is the modal exit animation window.
	CloseDelay time.Duration `yaml:"close_delay"`
	// StateTTL is how long an idle session's state is kept.
	StateTTL time.Duration `yaml:"state_ttl"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// DevMode enables locale reloading and text logs.
	DevMode bool `yaml:"dev_mode"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":3000",
		SessionSecret:   "qpick-dev-secret",
		Locale:          "en",
		CatalogPath:     "/qpick/catalog",
		CloseDelay:      300 * time.Millisecond,
		StateTTL:        24 * time.Hour,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"QPICK_ADDR":           &c.Addr,
		"QPICK_REDIS_URL":      &c.RedisURL,
		"QPICK_SESSION_SECRET": &c.SessionSecret,
		"QPICK_LOCALE":         &c.Locale,
		"QPICK_LOCALE_DIR":     &c.LocaleDir,
		"QPICK_CATALOG_PATH":   &c.CatalogPath,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	dur := map[string]*time.Duration{
		"QPICK_CLOSE_DELAY":      &c.CloseDelay,
		"QPICK_STATE_TTL":        &c.StateTTL,
		"QPICK_SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	}
	for key, dst := range dur {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("QPICK_DEV"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("QPICK_DEV: %w", err)
		}
		c.DevMode = b
	}
	return nil
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session_secret is required"))
	}
	if c.CatalogPath == "" || c.CatalogPath[0] != '/' {
		errs = append(errs, fmt.Errorf("catalog_path %q must be absolute", c.CatalogPath))
	}
	if c.CloseDelay < 0 {
		errs = append(errs, errors.New("close_delay must not be negative"))
	}
	return errors.Join(errs...)
}
