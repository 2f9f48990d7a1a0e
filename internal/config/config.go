package config

import (
	"os"
	"strconv"
)

// ApplyEnv overrides file settings with environment variables. Unset or
// unparsable variables leave the current value in place.
func (c *LocalConfig) ApplyEnv() {
	c.Daemon.Port = getEnvInt("SKILLGAP_PORT", c.Daemon.Port)
	c.Daemon.Bind = getEnv("SKILLGAP_BIND", c.Daemon.Bind)
	c.Daemon.LogLevel = getEnv("SKILLGAP_LOG_LEVEL", c.Daemon.LogLevel)

	c.Storage.Driver = getEnv("SKILLGAP_STORAGE", c.Storage.Driver)
	c.Storage.Path = getEnv("SKILLGAP_STORAGE_PATH", c.Storage.Path)

	c.Catalog.Source = getEnv("SKILLGAP_CATALOG_SOURCE", c.Catalog.Source)
	c.Catalog.Path = getEnv("SKILLGAP_CATALOG_PATH", c.Catalog.Path)
	c.Catalog.RefreshIntervalSeconds = getEnvInt("SKILLGAP_CATALOG_REFRESH_SECONDS", c.Catalog.RefreshIntervalSeconds)
	c.Catalog.Postgres.DSN = getEnv("DATABASE_URL", c.Catalog.Postgres.DSN)
	c.Catalog.Neo4j.URI = getEnv("NEO4J_URI", c.Catalog.Neo4j.URI)
	c.Catalog.Neo4j.Username = getEnv("NEO4J_USERNAME", c.Catalog.Neo4j.Username)
	c.Catalog.Neo4j.Password = getEnv("NEO4J_PASSWORD", c.Catalog.Neo4j.Password)

	c.Queue.Enabled = getEnvBool("SKILLGAP_QUEUE_ENABLED", c.Queue.Enabled)
	c.Queue.URL = getEnv("RABBITMQ_URL", c.Queue.URL)
	c.Queue.Workers = getEnvInt("SKILLGAP_QUEUE_WORKERS", c.Queue.Workers)

	c.Analysis.MaxConcurrent = getEnvInt("SKILLGAP_MAX_CONCURRENT", c.Analysis.MaxConcurrent)

	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)
	c.Tracing.Environment = getEnv("SKILLGAP_ENV", c.Tracing.Environment)
	c.Tracing.SampleRate = getEnvFloat("SKILLGAP_TRACE_SAMPLE_RATE", c.Tracing.SampleRate)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
