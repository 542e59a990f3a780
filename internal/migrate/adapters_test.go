package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagshift/dagshift/internal/model"
)

func TestDetectAdapters(t *testing.T) {
	profiles, _ := GenerateProfiles([]model.Environment{
		{ID: 1, Name: "prod", ProjectID: 1, ConnectionType: "snowflake"},
		{ID: 2, Name: "bq", ProjectID: 1, ConnectionType: "bigquery"},
		{ID: 3, Name: "bq2", ProjectID: 2, ConnectionType: "bigquery"},
	})

	adapters := DetectAdapters(profiles)
	// Sorted, deduplicated, and always including duckdb for the local target.
	assert.Equal(t, []string{"dbt-bigquery", "dbt-duckdb", "dbt-snowflake"}, adapters)
}

func TestDetectAdapters_EmptyAccountStillNeedsDuckdb(t *testing.T) {
	profiles, _ := GenerateProfiles(nil)
	adapters := DetectAdapters(profiles)
	assert.Contains(t, adapters, "dbt-duckdb")
}

func TestExtractEnvVars(t *testing.T) {
	profiles, _ := GenerateProfiles([]model.Environment{
		{ID: 1, Name: "prod", ProjectID: 1, ConnectionType: "snowflake"},
	})
	jobs := []model.Job{
		{ID: 100, Name: "nightly", ExecuteSteps: []string{"dbt build --target ${MY_TOKEN}"}},
	}

	vars := ExtractEnvVars(profiles, jobs)

	// Secret placeholder injected by the profile generator.
	assert.Equal(t, SecretPlaceholder, vars["DBT_PROD_PASSWORD"])
	// The local duckdb target's references keep their inline defaults.
	assert.Equal(t, "local_dev.duckdb", vars["DBT_DUCKDB_PATH"])
	assert.Equal(t, "dev", vars["DBT_DUCKDB_SCHEMA"])
	// Shell-style references in execute steps.
	assert.Equal(t, SecretPlaceholder, vars["MY_TOKEN"])
}

func TestExtractEnvVars_DefaultWinsOverPlaceholder(t *testing.T) {
	profiles := map[string]*GeneratedProfile{
		"p": {
			Name: "p",
			Targets: map[string]map[string]any{
				"a": {"schema": "{{ env_var('DBT_SCHEMA') }}"},
				"b": {"schema": "{{ env_var('DBT_SCHEMA', 'analytics') }}"},
			},
		},
	}

	vars := ExtractEnvVars(profiles, nil)
	require.Contains(t, vars, "DBT_SCHEMA")
	assert.Equal(t, "analytics", vars["DBT_SCHEMA"])
}

func TestSortedEnvVars(t *testing.T) {
	lines := SortedEnvVars(map[string]string{"B": "2", "A": "1", "C": "3"})
	assert.Equal(t, []string{"A=1", "B=2", "C=3"}, lines)
}
