package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagshift/dagshift/internal/model"
)

func snowflakeEnv(id int64, name string) model.Environment {
	return model.Environment{
		ID:             id,
		Name:           name,
		ProjectID:      1,
		ConnectionType: "snowflake",
		ConnectionParams: map[string]any{
			"account":   "acme",
			"database":  "ANALYTICS",
			"warehouse": "TRANSFORMING",
		},
		IsDeployment: true,
	}
}

func TestGenerateProfiles_CopiesParamsVerbatim(t *testing.T) {
	profiles, warnings := GenerateProfiles([]model.Environment{snowflakeEnv(10, "Production")})
	require.Empty(t, warnings)

	p, ok := profiles["production"]
	require.True(t, ok)
	assert.Equal(t, int64(10), p.SourceEnvironmentID)
	assert.Equal(t, LocalTargetName, p.DefaultTarget)

	target := p.Targets["production"]
	require.NotNil(t, target)
	assert.Equal(t, "snowflake", target["type"])
	assert.Equal(t, "acme", target["account"])
	assert.Equal(t, "ANALYTICS", target["database"])
	assert.Equal(t, "TRANSFORMING", target["warehouse"])
	assert.Equal(t, "{{ env_var('DBT_PRODUCTION_PASSWORD') }}", target["password"])
}

func TestGenerateProfiles_EveryProfileHasLocalTarget(t *testing.T) {
	profiles, _ := GenerateProfiles([]model.Environment{
		snowflakeEnv(10, "prod"),
		{ID: 11, Name: "dev", ProjectID: 1, ConnectionType: "postgres"},
	})

	for name, p := range profiles {
		local, ok := p.Targets[LocalTargetName]
		require.True(t, ok, "profile %q lacks the local target", name)
		assert.Equal(t, "duckdb", local["type"])
	}
}

func TestGenerateProfiles_DefaultPrefersDeployment(t *testing.T) {
	dev := model.Environment{ID: 5, Name: "dev", ProjectID: 1, ConnectionType: "postgres"}
	prod := snowflakeEnv(10, "prod")

	profiles, _ := GenerateProfiles([]model.Environment{dev, prod})

	def, ok := profiles["default"]
	require.True(t, ok)
	// Cloned from prod (the first deployment env), not dev (the first env).
	assert.Equal(t, "snowflake", def.Targets["prod"]["type"])
	assert.Equal(t, "prod", def.PrimaryTarget)
	assert.Equal(t, LocalTargetName, def.DefaultTarget)
}

func TestGenerateProfiles_NoEnvironmentsSynthesizesDefault(t *testing.T) {
	profiles, warnings := GenerateProfiles(nil)
	require.Empty(t, warnings)
	require.Len(t, profiles, 1)

	def := profiles["default"]
	require.NotNil(t, def)
	assert.Equal(t, "postgres", def.Targets["prod"]["type"])
	assert.Equal(t, "duckdb", def.Targets[LocalTargetName]["type"])
}

func TestGenerateProfiles_UnsupportedTypeWarnsButKeepsParams(t *testing.T) {
	profiles, warnings := GenerateProfiles([]model.Environment{{
		ID:               3,
		Name:             "exotic",
		ProjectID:        1,
		ConnectionType:   "clickhouse",
		ConnectionParams: map[string]any{"host": "ch.internal"},
	}})

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnsupportedConnectionType, warnings[0].Code)

	target := profiles["exotic"].Targets["exotic"]
	assert.Equal(t, "clickhouse", target["type"], "unsupported type is carried verbatim")
	assert.Equal(t, "ch.internal", target["host"])
}

func TestGenerateProfiles_NameCollisionGetsIDSuffix(t *testing.T) {
	profiles, _ := GenerateProfiles([]model.Environment{
		{ID: 1, Name: "Prod", ProjectID: 1, ConnectionType: "postgres"},
		{ID: 2, Name: "prod!", ProjectID: 2, ConnectionType: "postgres"},
	})

	_, first := profiles["prod"]
	_, second := profiles["prod_2"]
	assert.True(t, first)
	assert.True(t, second)
}

func TestGenerateProfiles_SuffixedNameAlreadyTaken(t *testing.T) {
	// Environment 1's natural name equals the id-suffixed name
	// environment 3 would otherwise receive.
	profiles, _ := GenerateProfiles([]model.Environment{
		{ID: 1, Name: "prod_3", ProjectID: 1, ConnectionType: "postgres"},
		{ID: 2, Name: "prod", ProjectID: 2, ConnectionType: "postgres"},
		{ID: 3, Name: "prod", ProjectID: 3, ConnectionType: "postgres"},
	})

	require.Len(t, profiles, 4) // three environments plus the default profile
	assert.Contains(t, profiles, "prod_3")
	assert.Contains(t, profiles, "prod")
	assert.Contains(t, profiles, "prod_3_3")
}
