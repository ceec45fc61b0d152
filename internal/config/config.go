// Package config loads roster settings. Sources, lowest precedence first:
// built-in defaults, a YAML file, a .env file in the working directory and
// the process environment. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL  = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second
	DefaultKey     = "token"

	BackendFile = "file"
	BackendBolt = "bolt"
)

// Config is the merged configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`

	// Token overrides the stored session token. Environment only.
	Token string `yaml:"-"`
}

type APIConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Backend string `yaml:"backend"`
	Key     string `yaml:"key"`
	Dir     string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API:     APIConfig{URL: DefaultAPIURL, Timeout: DefaultTimeout},
		Session: SessionConfig{Backend: BackendFile, Key: DefaultKey, Dir: defaultStateDir()},
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roster"
	}
	return filepath.Join(home, ".roster")
}

// DefaultPath returns $ROSTER_CONFIG or <user config dir>/roster/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("ROSTER_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "roster", "config.yaml")
}

// Load merges all sources. An explicit path that does not exist is an
// error; a missing default file is not.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	dotenv, err := godotenv.Read()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("ROSTER_API_URL", &c.API.URL)
	str("ROSTER_SESSION_BACKEND", &c.Session.Backend)
	str("ROSTER_TOKEN_KEY", &c.Session.Key)
	str("ROSTER_STATE_DIR", &c.Session.Dir)
	str("ROSTER_LOG_LEVEL", &c.Log.Level)
	str("ROSTER_LOG_FORMAT", &c.Log.Format)
	str("ROSTER_LOG_FILE", &c.Log.File)
	str("ROSTER_TOKEN", &c.Token)

	if v, ok := lookup("ROSTER_API_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: ROSTER_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	return nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("config: api.url is empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %s", c.API.Timeout)
	}
	switch c.Session.Backend {
	case BackendFile, BackendBolt:
	default:
		return fmt.Errorf("config: unknown session.backend %q", c.Session.Backend)
	}
	if c.Session.Key == "" {
		return errors.New("config: session.key is empty")
	}
	return nil
}

// LogFile returns the configured log file or <state dir>/roster.log.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Session.Dir, "roster.log")
}
