package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
}

type ServerConfig struct {
	Port      int    `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

type SessionConfig struct {
	Store                string `toml:"store"`
	DSN                  string `toml:"dsn"`
	Secret               string `toml:"secret"`
	CookieName           string `toml:"cookie_name"`
	MaxAgeHours          int    `toml:"max_age_hours"`
	PruneIntervalMinutes int    `toml:"prune_interval_minutes"` // 0 disables background pruning
	MigrateOnStart       bool   `toml:"migrate_on_start"`
	SecureCookie         bool   `toml:"secure_cookie"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:      4567,
			LogLevel:  "info",
			LogFormat: "text",
		},
		Session: SessionConfig{
			Store:                "memory",
			CookieName:           "todos_session",
			MaxAgeHours:          24,
			PruneIntervalMinutes: 15,
		},
	}
}

func (c SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

func (c SessionConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalMinutes) * time.Minute
}

func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".todos", "config.toml"), nil
}

// Load reads path over Default(). A missing file is reported as an
// os.ErrNotExist error; callers usually fall back to Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// LoadOrDefault is Load, treating a missing file as defaults.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Config{}, err
}

// Parse decodes data over Default(). It does not call Validate: environment
// overrides and `config set` may still fill in required keys.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the environment variables a container
// deployment sets.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	overrides := []struct {
		env string
		key string
	}{
		{"PORT", "server.port"},
		{"LOG_LEVEL", "server.log_level"},
		{"LOG_FORMAT", "server.log_format"},
		{"SESSION_STORE", "session.store"},
		{"DATABASE_URL", "session.dsn"},
		{"SESSION_SECRET", "session.secret"},
		{"MIGRATE_ON_START", "session.migrate_on_start"},
	}
	for _, o := range overrides {
		value := strings.TrimSpace(getenv(o.env))
		if value == "" {
			continue
		}
		if err := ApplySet(cfg, o.key, value); err != nil {
			return fmt.Errorf("%s: %w", o.env, err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	switch c.Session.Store {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Session.DSN) == "" {
			return fmt.Errorf("session.dsn is required for the %s store", c.Session.Store)
		}
	default:
		return errors.New("session.store must be one of: memory, sqlite, postgres")
	}
	if c.Session.MaxAgeHours <= 0 {
		return errors.New("session.max_age_hours must be > 0")
	}
	if c.Session.PruneIntervalMinutes < 0 {
		return errors.New("session.prune_interval_minutes must be >= 0")
	}
	return nil
}

// ApplySet validates and applies a single key, as used by `todos config set`.
func ApplySet(cfg *Config, key, rawValue string) error {
	switch normalizeKey(key) {
	case "server.port", "port":
		port, err := strconv.Atoi(strings.TrimSpace(rawValue))
		if err != nil {
			return errors.New("port must be a number")
		}
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.Server.Port = port
		return nil
	case "server.log_level", "log_level":
		level := strings.ToLower(strings.TrimSpace(rawValue))
		switch level {
		case "debug", "info", "warn", "error":
			cfg.Server.LogLevel = level
			return nil
		default:
			return errors.New("log_level must be one of: debug, info, warn, error")
		}
	case "server.log_format", "log_format":
		format := strings.ToLower(strings.TrimSpace(rawValue))
		if format != "text" && format != "json" {
			return errors.New("log_format must be text or json")
		}
		cfg.Server.LogFormat = format
		return nil
	case "session.store", "store":
		store := strings.ToLower(strings.TrimSpace(rawValue))
		switch store {
		case "memory", "sqlite", "postgres":
			cfg.Session.Store = store
			return nil
		default:
			return errors.New("store must be one of: memory, sqlite, postgres")
		}
	case "session.dsn", "dsn", "database_url":
		cfg.Session.DSN = ExpandHome(strings.TrimSpace(rawValue))
		return nil
	case "session.secret", "secret":
		value := strings.TrimSpace(rawValue)
		if value != "" && len(value) < 16 {
			return errors.New("secret must be at least 16 characters")
		}
		cfg.Session.Secret = value
		return nil
	case "session.cookie_name", "cookie_name":
		value := strings.TrimSpace(rawValue)
		if value == "" || strings.ContainsAny(value, " ;,=") {
			return errors.New("cookie_name must be a non-empty token")
		}
		cfg.Session.CookieName = value
		return nil
	case "session.max_age_hours", "max_age_hours":
		hours, err := strconv.Atoi(strings.TrimSpace(rawValue))
		if err != nil {
			return errors.New("max_age_hours must be a number")
		}
		if hours < 1 {
			return errors.New("max_age_hours must be >= 1")
		}
		cfg.Session.MaxAgeHours = hours
		return nil
	case "session.prune_interval_minutes", "prune_interval_minutes":
		minutes, err := strconv.Atoi(strings.TrimSpace(rawValue))
		if err != nil {
			return errors.New("prune_interval_minutes must be a number")
		}
		if minutes < 0 {
			return errors.New("prune_interval_minutes must be >= 0")
		}
		cfg.Session.PruneIntervalMinutes = minutes
		return nil
	case "session.migrate_on_start", "migrate_on_start":
		b, err := parseBool(rawValue)
		if err != nil {
			return errors.New("migrate_on_start must be true or false")
		}
		cfg.Session.MigrateOnStart = b
		return nil
	case "session.secure_cookie", "secure_cookie":
		b, err := parseBool(rawValue)
		if err != nil {
			return errors.New("secure_cookie must be true or false")
		}
		cfg.Session.SecureCookie = b
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", value)
	}
}

func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	content, err := Format(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func Format(cfg Config) (string, error) {
	var b bytes.Buffer
	b.WriteString("# todos configuration file\n")
	b.WriteString("# Generated by: todos config set\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return "", err
	}
	return b.String(), nil
}
