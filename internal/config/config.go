package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultRemoteBaseURL is the verification backend used when none is configured.
const DefaultRemoteBaseURL = "https://nova-s-sih-35061497bf29.herokuapp.com"

// Config represents the main configuration for certcheck.
type Config struct {
	BaseDir   string          `toml:"base_dir"`
	LogDir    string          `toml:"log_dir"`
	Remote    RemoteConfig    `toml:"remote"`
	Registry  RegistryConfig  `toml:"registry"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Server    ServerConfig    `toml:"server"`
	Audit     AuditConfig     `toml:"audit"`
	Batch     BatchConfig     `toml:"batch"`
}

// RemoteConfig configures the verification backend.
type RemoteConfig struct {
	Enabled         bool   `toml:"enabled"`
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"` // per call; defaults to 15
	CredentialsPath string `toml:"credentials_path"`
}

// Timeout returns the per-call timeout, falling back to 15s when unset.
func (c RemoteConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RegistryConfig represents configuration for the registry data source.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RegistryConfig struct {
	Type string `toml:"type"` // "memory", "json", "sqlite", "postgres", "s3", or "redis"

	// Memory-specific fields (only used when Type == "memory")
	Seed bool `toml:"seed,omitempty"` // load the demo records

	// File-backed fields (used when Type == "json" or "sqlite")
	Path string `toml:"path,omitempty"`

	// Postgres-specific fields (only used when Type == "postgres")
	DSN string `toml:"dsn,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Key             string `toml:"s3_key,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// Redis-specific fields (only used when Type == "redis")
	RedisURL    string `toml:"redis_url,omitempty"`
	RedisPrefix string `toml:"redis_prefix,omitempty"`
}

// ArtifactsConfig controls how files are picked up for verification.
type ArtifactsConfig struct {
	Ignore  []string `toml:"ignore"`
	MaxSize int64    `toml:"max_size"` // bytes; must be positive, defaults to 10MB
}

// ServerConfig configures `certcheck serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuditConfig represents configuration for verdict events.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type AuditConfig struct {
	Type    string   `toml:"type"`              // "none", "log", or "kafka"
	Brokers []string `toml:"brokers,omitempty"` // only used for type=kafka
	Topic   string   `toml:"topic,omitempty"`   // only used for type=kafka

	PublishTimeoutSeconds int `toml:"publish_timeout_seconds,omitempty"` // per event; defaults to 5
}

// PublishTimeout bounds how long one event may take to be acknowledged,
// falling back to 5s when unset.
func (c AuditConfig) PublishTimeout() time.Duration {
	if c.PublishTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PublishTimeoutSeconds) * time.Second
}

// BatchConfig configures multi-file verification.
type BatchConfig struct {
	Concurrency int `toml:"concurrency"`
}

// NewConfig creates a new Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Remote: RemoteConfig{
			Enabled:         true,
			BaseURL:         DefaultRemoteBaseURL,
			TimeoutSeconds:  15,
			CredentialsPath: filepath.Join(baseDir, "credentials", "token.age"),
		},
		Registry: RegistryConfig{
			Type: "sqlite",
			Path: filepath.Join(baseDir, "registry.db"),
		},
		Artifacts: ArtifactsConfig{
			Ignore:  []string{".DS_Store", "Thumbs.db"},
			MaxSize: 10 * 1024 * 1024,
		},
		Server: ServerConfig{Addr: ":8080"},
		Audit:  AuditConfig{Type: "log"},
		Batch:  BatchConfig{Concurrency: 4},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path and applies
// environment overrides.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
//   - CERTCHECK_API_BASE_URL: remote base URL
func (c *Config) ApplyEnv() {
	if u := os.Getenv("CERTCHECK_API_BASE_URL"); u != "" {
		c.Remote.BaseURL = u
	}
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
