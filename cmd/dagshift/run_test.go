package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagshift/dagshift/internal/migrate"
	"github.com/dagshift/dagshift/internal/model"
)

func TestBuildSummary_CarriesProfileWarnings(t *testing.T) {
	snap := &model.AccountSnapshot{
		Projects: []model.Project{
			{ID: 1, Name: "Analytics", RepositoryURL: "https://github.com/acme/analytics.git"},
		},
		Environments: []model.Environment{
			{ID: 10, Name: "prod", ProjectID: 1, ConnectionType: "weirddb", IsDeployment: true},
		},
		Jobs: []model.Job{
			{ID: 100, ProjectID: 1, EnvironmentID: 10, Name: "Build", ExecuteSteps: []string{"dbt build"}},
		},
	}

	layout := migrate.PlanLayout(snap.Projects)
	profiles, profileWarnings := migrate.GenerateProfiles(snap.Environments)
	require.NotEmpty(t, profileWarnings, "unsupported connection type must warn")

	mapped, err := migrate.MapJobs(snap, profiles, layout)
	require.NoError(t, err)

	warnings := append(profileWarnings, mapped.Warnings...)
	summary := buildSummary(42, snap, profiles, mapped, warnings)
	require.Len(t, summary.Warnings, len(warnings))

	rendered := string(summary.Render())
	assert.Contains(t, rendered, migrate.WarnUnsupportedConnectionType)
	assert.Contains(t, rendered, `"weirddb"`)
}
