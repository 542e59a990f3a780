package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DBT_CLOUD_API_KEY", "k")
	t.Setenv("DBT_CLOUD_ACCOUNT_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "dagster_project", cfg.OutputDir)
	assert.False(t, cfg.Publish.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DBT_CLOUD_API_KEY", "k")
	t.Setenv("DBT_CLOUD_ACCOUNT_ID", "42")
	t.Setenv("DBT_CLOUD_BASE_URL", "https://acme.getdbt.com/api/v2")
	t.Setenv("DAGSHIFT_REQUEST_TIMEOUT", "10s")
	t.Setenv("DAGSHIFT_PAGE_SIZE", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://acme.getdbt.com/api/v2", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 25, cfg.PageSize)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := &Config{BaseURL: DefaultBaseURL, OutputDir: "out", MaxAttempts: 1, PageSize: 1}
	assert.Error(t, cfg.Validate())

	cfg.APIKey = "k"
	assert.Error(t, cfg.Validate(), "account id still missing")

	cfg.AccountID = 42
	assert.NoError(t, cfg.Validate())
}

func TestPublishConfig_Enabled(t *testing.T) {
	p := PublishConfig{Endpoint: "minio.internal:9000"}
	assert.False(t, p.Enabled(), "credentials are required")

	p.AccessKey = "a"
	p.SecretKey = "s"
	assert.True(t, p.Enabled())
}
