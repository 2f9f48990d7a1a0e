package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/skillgap/internal/gap"
	"github.com/felixgeelhaar/skillgap/internal/observability"
)

// LocalConfig holds configuration for the skillgap daemon and CLI
type LocalConfig struct {
	Daemon   DaemonConfig                `yaml:"daemon"`
	Storage  StorageConfig               `yaml:"storage"`
	Catalog  CatalogConfig               `yaml:"catalog"`
	Queue    QueueConfig                 `yaml:"queue"`
	Analysis AnalysisConfig              `yaml:"analysis"`
	Tracing  observability.TracingConfig `yaml:"tracing"`
	Scoring  gap.Policy                  `yaml:"scoring"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port      int             `yaml:"port"`
	Bind      string          `yaml:"bind"`
	LogLevel  string          `yaml:"log_level"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds analysis submissions per client
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// StorageConfig selects where reports are kept
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite, file or none
	Path   string `yaml:"path"`   // database file or report directory; defaults under ~/.skillgap
}

// CatalogConfig selects the catalog source and its refresh behaviour
type CatalogConfig struct {
	Source                 string         `yaml:"source"` // file, sqlite, postgres or neo4j
	Path                   string         `yaml:"path,omitempty"`
	RefreshIntervalSeconds int            `yaml:"refresh_interval_seconds"`
	MaxAttempts            int            `yaml:"max_attempts"`
	FailureThreshold       int            `yaml:"failure_threshold"`
	Postgres               PostgresConfig `yaml:"postgres"`
	Neo4j                  Neo4jConfig    `yaml:"neo4j"`
}

// PostgresConfig holds the Postgres catalog connection
type PostgresConfig struct {
	DSN string `yaml:"-"` // Loaded from secrets.yaml or DATABASE_URL
}

// Neo4jConfig holds the Neo4j catalog connection
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"-"` // Loaded from secrets.yaml or NEO4J_PASSWORD
	Database string `yaml:"database"`
}

// QueueConfig holds RabbitMQ worker settings
type QueueConfig struct {
	Enabled        bool   `yaml:"enabled"`
	URL            string `yaml:"-"` // Loaded from secrets.yaml or RABBITMQ_URL
	Workers        int    `yaml:"workers"`
	Prefetch       int    `yaml:"prefetch"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AnalysisConfig bounds concurrent analyses
type AnalysisConfig struct {
	MaxConcurrent       int `yaml:"max_concurrent"`
	QueueTimeoutSeconds int `yaml:"queue_timeout_seconds"`
}

// SecretsConfig holds credentials loaded from secrets.yaml
type SecretsConfig struct {
	DatabaseURL   string `yaml:"database_url"`
	RabbitMQURL   string `yaml:"rabbitmq_url"`
	Neo4jPassword string `yaml:"neo4j_password"`
}

// SkillgapDir returns the path to ~/.skillgap
func SkillgapDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".skillgap"), nil
}

// EnsureSkillgapDir creates ~/.skillgap and subdirectories if they don't exist
func EnsureSkillgapDir() (string, error) {
	dir, err := SkillgapDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "reports", "catalog"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	tracing := observability.DefaultTracingConfig()

	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 120,
				Burst:             20,
			},
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Catalog: CatalogConfig{
			Source:                 "file",
			RefreshIntervalSeconds: 300,
			MaxAttempts:            3,
			FailureThreshold:       5,
			Neo4j: Neo4jConfig{
				URI:      "neo4j://localhost:7687",
				Username: "neo4j",
				Database: "neo4j",
			},
		},
		Queue: QueueConfig{
			Workers:        3,
			Prefetch:       1,
			TimeoutSeconds: 30,
		},
		Analysis: AnalysisConfig{
			MaxConcurrent:       8,
			QueueTimeoutSeconds: 10,
		},
		Tracing: tracing,
		Scoring: gap.DefaultPolicy(),
	}
}

// LoadLocalConfig loads configuration from ~/.skillgap/config.yaml,
// applies secrets and environment overrides
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := SkillgapDir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(dir)
}

// LoadLocalConfigFrom loads config.yaml and secrets.yaml from dir. A missing
// config file yields the defaults.
func LoadLocalConfigFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	cfg.ApplyEnv()
	cfg.resolvePaths(dir)

	return cfg, nil
}

// resolvePaths fills storage and catalog paths that were left empty
func (c *LocalConfig) resolvePaths(dir string) {
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case "sqlite":
			c.Storage.Path = filepath.Join(dir, "skillgap.db")
		case "file":
			c.Storage.Path = filepath.Join(dir, "reports")
		}
	}
	if c.Catalog.Source == "file" && c.Catalog.Path == "" {
		c.Catalog.Path = filepath.Join(dir, "catalog", "catalog.yaml")
	}
	if c.Catalog.Source == "sqlite" && c.Catalog.Path == "" {
		c.Catalog.Path = c.Storage.Path
	}
}

// loadSecrets loads credentials from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	cfg.Catalog.Postgres.DSN = secrets.DatabaseURL
	cfg.Queue.URL = secrets.RabbitMQURL
	cfg.Catalog.Neo4j.Password = secrets.Neo4jPassword
	return nil
}

// Validate checks the configuration for values the daemon cannot run with
func (c *LocalConfig) Validate() error {
	var errs []error

	if c.Daemon.Port < 0 || c.Daemon.Port > 65535 {
		errs = append(errs, fmt.Errorf("daemon.port %d out of range", c.Daemon.Port))
	}
	if c.Daemon.RateLimit.Enabled && c.Daemon.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("daemon.rate_limit.requests_per_minute must be positive"))
	}

	switch c.Storage.Driver {
	case "sqlite", "file", "none":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be sqlite, file or none", c.Storage.Driver))
	}

	switch c.Catalog.Source {
	case "file", "sqlite":
		if c.Catalog.Path == "" {
			errs = append(errs, fmt.Errorf("catalog.path is required for the %s source", c.Catalog.Source))
		}
	case "postgres":
		if c.Catalog.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres catalog requires database_url in secrets.yaml or DATABASE_URL"))
		}
	case "neo4j":
		if c.Catalog.Neo4j.URI == "" {
			errs = append(errs, errors.New("catalog.neo4j.uri is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source %q must be file, sqlite, postgres or neo4j", c.Catalog.Source))
	}

	if c.Queue.Enabled && c.Queue.URL == "" {
		errs = append(errs, errors.New("queue requires rabbitmq_url in secrets.yaml or RABBITMQ_URL"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_rate %v outside [0,1]", c.Tracing.SampleRate))
	}

	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}

	return errors.Join(errs...)
}

// SaveLocalConfig saves configuration to ~/.skillgap/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureSkillgapDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SaveSecrets saves credentials to ~/.skillgap/secrets.yaml
func SaveSecrets(secrets SecretsConfig) error {
	dir, err := EnsureSkillgapDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}
