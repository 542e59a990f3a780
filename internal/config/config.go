// Package config provides configuration loading for the dagshift CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the multi-tenant dbt Cloud API host.
const DefaultBaseURL = "https://cloud.getdbt.com/api/v2"

// Config holds one migration run's configuration. It is resolved once before
// the pipeline starts; the pipeline itself never reads the environment.
type Config struct {
	// dbt Cloud API settings
	APIKey    string
	AccountID int64
	BaseURL   string

	// Client behavior
	RequestTimeout time.Duration
	MaxAttempts    int
	PageSize       int

	// Output settings
	OutputDir    string
	SkipScaffold bool

	// ScaffoldTimeout bounds each external scaffolding invocation.
	ScaffoldTimeout time.Duration

	// Bundle publishing (optional, disabled when Endpoint is empty)
	Publish PublishConfig
}

// PublishConfig configures optional migration-bundle publishing to an
// S3-compatible object store.
type PublishConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether bundle publishing is configured.
func (p PublishConfig) Enabled() bool {
	return p.Endpoint != "" && p.AccessKey != "" && p.SecretKey != ""
}

// Load loads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// Best effort: absent .env just means plain environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:          getEnv("DBT_CLOUD_API_KEY", ""),
		AccountID:       getEnvInt64("DBT_CLOUD_ACCOUNT_ID", 0),
		BaseURL:         getEnv("DBT_CLOUD_BASE_URL", DefaultBaseURL),
		RequestTimeout:  getEnvDuration("DAGSHIFT_REQUEST_TIMEOUT", 30*time.Second),
		MaxAttempts:     getEnvInt("DAGSHIFT_MAX_ATTEMPTS", 5),
		PageSize:        getEnvInt("DAGSHIFT_PAGE_SIZE", 100),
		OutputDir:       getEnv("DAGSHIFT_OUTPUT_DIR", "dagster_project"),
		ScaffoldTimeout: getEnvDuration("DAGSHIFT_SCAFFOLD_TIMEOUT", 2*time.Minute),
		Publish: PublishConfig{
			Endpoint:  getEnv("DAGSHIFT_PUBLISH_ENDPOINT", ""),
			AccessKey: getEnv("DAGSHIFT_PUBLISH_ACCESS_KEY", ""),
			SecretKey: getEnv("DAGSHIFT_PUBLISH_SECRET_KEY", ""),
			Bucket:    getEnv("DAGSHIFT_PUBLISH_BUCKET", "migrations"),
			Prefix:    getEnv("DAGSHIFT_PUBLISH_PREFIX", "dagshift"),
			UseSSL:    getEnv("DAGSHIFT_PUBLISH_USE_SSL", "false") == "true",
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is complete enough to run.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key is required (flag --api-key or DBT_CLOUD_API_KEY)")
	}
	if c.AccountID <= 0 {
		return fmt.Errorf("account id is required (flag --account-id or DBT_CLOUD_ACCOUNT_ID)")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base url must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
