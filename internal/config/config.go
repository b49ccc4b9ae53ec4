package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the project root.
const FileName = "tally.yaml"

// Storage backends.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRemote   = "remote"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Events  EventsConfig  `yaml:"events"`
	Log     LogConfig     `yaml:"log"`
	Remote  RemoteConfig  `yaml:"remote,omitempty"`
	Git     GitConfig     `yaml:"git"`
}

// StorageConfig selects where the ledger lives.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// DSN is a directory for csv, a file path for sqlite and a URL for
	// postgres. Relative paths resolve against the project root.
	DSN string `yaml:"dsn"`
}

// ServerConfig configures `tally serve`.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins,omitempty"`
	APIUser      string   `yaml:"api_user,omitempty"`
	// APIPasswordHash is a bcrypt hash. Auth is off when it is empty.
	APIPasswordHash string `yaml:"api_password_hash,omitempty"`
}

// CacheConfig configures the dashboard summary cache.
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url,omitempty"`
	Size     int           `yaml:"size"`
	// TTL bounds how long a summary is served. Writes by other processes
	// purge the cache on the csv and sqlite backends; on postgres they are
	// only picked up once entries expire.
	TTL      time.Duration `yaml:"ttl"`
}

// EventsConfig configures ledger event publishing.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url,omitempty"`
	Exchange string `yaml:"exchange"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// RemoteConfig points the CLI at a running `tally serve`.
type RemoteConfig struct {
	URL      string `yaml:"url,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GitConfig controls git integration of the csv data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendCSV,
			DSN:     "data",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Cache: CacheConfig{
			Size: 128,
			TTL:  5 * time.Minute,
		},
		Events: EventsConfig{
			Exchange: "tally.events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
	}
}

// LoadDotEnv loads dir/.env into the process environment when the file
// exists. Variables already set are left alone.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from TALLY_* variables looked up with getenv.
// Empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Backend, "TALLY_BACKEND")
	set(&c.Storage.DSN, "TALLY_DSN")
	set(&c.Server.Addr, "TALLY_ADDR")
	set(&c.Server.APIUser, "TALLY_API_USER")
	set(&c.Server.APIPasswordHash, "TALLY_API_PASSWORD_HASH")
	set(&c.Cache.RedisURL, "TALLY_REDIS_URL")
	set(&c.Events.AMQPURL, "TALLY_AMQP_URL")
	set(&c.Log.Level, "TALLY_LOG_LEVEL")
	set(&c.Remote.URL, "TALLY_REMOTE_URL")
	set(&c.Remote.User, "TALLY_REMOTE_USER")
	set(&c.Remote.Password, "TALLY_REMOTE_PASSWORD")
}

// ResolveDSN returns the storage DSN, joining relative file paths to root.
func (c *Config) ResolveDSN(root string) string {
	dsn := c.Storage.DSN
	switch c.Storage.Backend {
	case BackendCSV, BackendSQLite:
		if dsn != "" && !filepath.IsAbs(dsn) {
			return filepath.Join(root, dsn)
		}
	}
	return dsn
}

// Validate checks the fields the commands depend on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendCSV, BackendSQLite, BackendPostgres, BackendMemory:
	case BackendRemote:
		if c.Remote.URL == "" {
			return errors.New("storage backend remote needs remote.url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Backend != BackendRemote && c.Storage.DSN == "" {
		return fmt.Errorf("storage backend %s needs a dsn", c.Storage.Backend)
	}
	if c.Server.APIPasswordHash != "" && c.Server.APIUser == "" {
		return errors.New("server.api_password_hash is set without server.api_user")
	}
	return nil
}
