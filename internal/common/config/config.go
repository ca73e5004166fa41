// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig               `mapstructure:"app"`
	Server  ServerConfig            `mapstructure:"server"`
	Camunda CamundaConfig           `mapstructure:"camunda"`
	Workers map[string]WorkerConfig `mapstructure:"workers"`
	Models  ModelsConfig            `mapstructure:"models"`
	Cache   CacheConfig             `mapstructure:"cache"`
	Audit   AuditConfig             `mapstructure:"audit"`
	Archive ArchiveConfig           `mapstructure:"archive"`
	Alerts  AlertsConfig            `mapstructure:"alerts"`
	Logging LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	Mode         string `mapstructure:"mode"`          // gin mode: debug, release, test
	// CORSOrigins lists allowed browser origins; empty disables CORS handling.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RateLimitPerMin caps requests per client IP; 0 disables limiting.
	RateLimitPerMin int `mapstructure:"rate_limit_per_min"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	ConnectRetries int    `mapstructure:"connect_retries"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// --- Model Backends ---

// ModelsConfig describes the scoring and explanation backends loaded at start-up.
type ModelsConfig struct {
	Scoring     BackendConfig `mapstructure:"scoring"`
	Explanation BackendConfig `mapstructure:"explanation"`
}

// BackendConfig describes one backend. Kind is "linear" (JSON artifact on disk)
// or "remote" (model server over HTTP). An empty kind disables the backend.
type BackendConfig struct {
	Kind    string `mapstructure:"kind"`
	Path    string `mapstructure:"path"`
	URL     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	Shape   string `mapstructure:"shape"`   // raw result shape emitted by the linear explainer
}

// --- Decision Sinks ---

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

type AuditConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string
func (p AuditConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ArchiveConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type AlertsConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Region    string  `mapstructure:"region"`
	TopicARN  string  `mapstructure:"topic_arn"`
	Threshold float64 `mapstructure:"threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
