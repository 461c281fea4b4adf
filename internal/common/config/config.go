// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig               `mapstructure:"app"`
	Camunda     CamundaConfig           `mapstructure:"camunda"`
	Database    DatabaseConfig          `mapstructure:"database"`
	Workers     map[string]WorkerConfig `mapstructure:"workers"`
	Remnawave   RemnawaveConfig         `mapstructure:"remnawave"`
	Credentials CredentialsConfig       `mapstructure:"credentials"`
	Dispatch    DispatchConfig          `mapstructure:"dispatch"`
	Audit       AuditConfig             `mapstructure:"audit"`
	Logging     LoggingConfig           `mapstructure:"logging"`
	Metrics     MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress     string `mapstructure:"broker_address"`
	UsePlaintext      bool   `mapstructure:"use_plaintext"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"` // milliseconds
	ConnectRetries    int    `mapstructure:"connect_retries"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// --- Remnawave ---

// DefaultRemnawaveURL is the panel address used when none is configured.
const DefaultRemnawaveURL = "https://remna.st/api"

// RemnawaveConfig holds the panel address, key and transport timeout.
type RemnawaveConfig struct {
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// Credential sources.
const (
	CredentialsSourceStatic = "static"
	CredentialsSourceRedis  = "redis"
)

// CredentialsConfig selects where a batch fetches its Remnawave credentials.
// The static source reads the remnawave section; the redis source reads a hash
// per credentials id from database.redis.
type CredentialsConfig struct {
	Source         string `mapstructure:"source"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`
}

// Batch failure policies.
const (
	FailurePolicyContinue = "continue"
	FailurePolicyAbort    = "abort"
)

type DispatchConfig struct {
	FailurePolicy string `mapstructure:"failure_policy"`
}

// AuditConfig enables the postgres dispatch audit trail.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Table   string `mapstructure:"table"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics listener address.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// NormalizedFailurePolicy returns the configured policy in lower case,
// defaulting to continue.
func (d DispatchConfig) NormalizedFailurePolicy() string {
	policy := strings.ToLower(strings.TrimSpace(d.FailurePolicy))
	if policy == "" {
		return FailurePolicyContinue
	}
	return policy
}
