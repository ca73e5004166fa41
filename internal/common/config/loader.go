// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendKindLinear = "linear"
	BackendKindRemote = "remote"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the YAML file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "credit-risk-workers")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 10000)
	v.SetDefault("server.write_timeout", 10000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit_per_min", 0)

	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.connect_retries", 10)

	v.SetDefault("models.scoring.kind", "")
	v.SetDefault("models.scoring.path", "")
	v.SetDefault("models.scoring.url", "")
	v.SetDefault("models.explanation.kind", "")
	v.SetDefault("models.explanation.path", "")
	v.SetDefault("models.explanation.url", "")
	v.SetDefault("models.explanation.shape", "structured")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.ttl", 300)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.host", "localhost")
	v.SetDefault("audit.port", 5432)
	v.SetDefault("audit.database", "")
	v.SetDefault("audit.user", "")
	v.SetDefault("audit.password", "")
	v.SetDefault("audit.table", "risk_decisions")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.index", "risk-explanations")

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.region", "us-east-1")
	v.SetDefault("alerts.topic_arn", "")
	v.SetDefault("alerts.threshold", 0.8)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	for _, b := range []*BackendConfig{&cfg.Models.Scoring, &cfg.Models.Explanation} {
		if b.Timeout == 0 {
			b.Timeout = 5000
		}
	}

	if cfg.Audit.MaxConnections == 0 {
		cfg.Audit.MaxConnections = 10
	}
	if cfg.Audit.MaxIdle == 0 {
		cfg.Audit.MaxIdle = 2
	}
	if cfg.Audit.SSLMode == "" {
		cfg.Audit.SSLMode = "disable"
	}

	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if err := validateBackend("models.scoring", cfg.Models.Scoring); err != nil {
		return err
	}
	if err := validateBackend("models.explanation", cfg.Models.Explanation); err != nil {
		return err
	}

	if cfg.Server.RateLimitPerMin < 0 {
		return fmt.Errorf("server.rate_limit_per_min must not be negative")
	}
	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when cache is enabled")
	}
	if cfg.Audit.Enabled && (cfg.Audit.Database == "" || cfg.Audit.User == "") {
		return fmt.Errorf("audit.database and audit.user are required when audit is enabled")
	}
	if cfg.Archive.Enabled && len(cfg.Archive.Addresses) == 0 {
		return fmt.Errorf("archive.addresses is required when archive is enabled")
	}
	if cfg.Alerts.Enabled && cfg.Alerts.TopicARN == "" {
		return fmt.Errorf("alerts.topic_arn is required when alerts are enabled")
	}
	if cfg.Alerts.Threshold < 0 || cfg.Alerts.Threshold > 1 {
		return fmt.Errorf("alerts.threshold must be within [0,1]")
	}

	return nil
}

func validateBackend(name string, b BackendConfig) error {
	switch b.Kind {
	case "":
		return nil
	case BackendKindLinear:
		if b.Path == "" {
			return fmt.Errorf("%s.path is required for kind %q", name, b.Kind)
		}
	case BackendKindRemote:
		if b.URL == "" {
			return fmt.Errorf("%s.url is required for kind %q", name, b.Kind)
		}
	default:
		return fmt.Errorf("%s.kind %q is not supported", name, b.Kind)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}
