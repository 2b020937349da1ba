// Package config loads settings shared by the web server and the terminal
// client. Sources in increasing precedence: defaults, YAML file, environment
// (including a .env file), command-line flags.
package config

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MATERIAIS_"

// Config holds the runtime settings.
type Config struct {
	Addr         string        `yaml:"addr"`
	BackendURL   string        `yaml:"backend_url"`
	DBPath       string        `yaml:"db_path"`
	LogPath      string        `yaml:"log_path"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	SessionKey   string        `yaml:"session_key"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        ":8080",
		BackendURL:  "http://localhost:3000/api",
		DBPath:      "materiais.sqlite3",
		SessionTTL:  24 * time.Hour,
		HTTPTimeout: 15 * time.Second,
	}
}

// Load registers the common flags on fs, parses args and merges every
// configuration source. getenv is usually os.Getenv; values from a .env
// file in the working directory fill in variables it leaves empty.
func Load(fs *flag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	var f flags
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	dotenv, err := readDotEnv(".env")
	if err != nil {
		return nil, err
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	cfg := Default()

	path := f.config
	if path == "" {
		path = lookup(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	f.apply(fs, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile merges the YAML file at path into c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// readDotEnv returns the variables of a .env file, or nothing if there is
// none. The process environment is left untouched.
func readDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

func (c *Config) applyEnv(lookup func(string) string) error {
	str := func(name string, dst *string) {
		if v := lookup(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v := lookup(EnvPrefix + name)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("ADDR", &c.Addr)
	str("BACKEND_URL", &c.BackendURL)
	str("DB_PATH", &c.DBPath)
	str("LOG_PATH", &c.LogPath)
	str("SESSION_KEY", &c.SessionKey)
	if err := dur("SESSION_TTL", &c.SessionTTL); err != nil {
		return err
	}
	if err := dur("HTTP_TIMEOUT", &c.HTTPTimeout); err != nil {
		return err
	}
	if v := lookup(EnvPrefix + "COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCOOKIE_SECURE: %w", EnvPrefix, err)
		}
		c.CookieSecure = b
	}
	return nil
}

// Validate checks that the merged configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend URL %q", c.BackendURL)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %v", c.SessionTTL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got %v", c.HTTPTimeout)
	}
	if c.SessionKey != "" {
		if _, err := c.Key(); err != nil {
			return err
		}
	}
	return nil
}

// Key decodes the configured session key. It returns nil when none is set,
// in which case a key is generated and kept in the database.
func (c *Config) Key() ([]byte, error) {
	if c.SessionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("session key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("session key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
