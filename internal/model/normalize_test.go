package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagshift/dagshift/internal/dbtcloud"
)

func rawJob(id, projectID, envID int64, name string) dbtcloud.RawJob {
	return dbtcloud.RawJob{ID: id, ProjectID: projectID, EnvironmentID: envID, Name: name}
}

func TestNormalize_SortsAndDeduplicates(t *testing.T) {
	raw := &dbtcloud.RawAccount{
		Projects: []dbtcloud.RawProject{
			{ID: 2, Name: "b"},
			{ID: 1, Name: "a"},
			{ID: 2, Name: "b-repeated-page"},
		},
		Environments: []dbtcloud.RawEnvironment{
			{ID: 20, Name: "prod", ProjectID: 1, Type: "deployment"},
			{ID: 10, Name: "dev", ProjectID: 1, Type: "development"},
			{ID: 20, Name: "prod", ProjectID: 1, Type: "deployment"},
		},
		Jobs: []dbtcloud.RawJob{
			rawJob(200, 1, 20, "second"),
			rawJob(100, 1, 10, "first"),
			rawJob(100, 1, 10, "first"),
		},
	}

	snap, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, snap.Projects, 2)
	assert.Equal(t, int64(1), snap.Projects[0].ID)
	assert.Equal(t, "b", snap.Projects[1].Name, "first occurrence wins on duplicate ids")

	require.Len(t, snap.Environments, 2)
	assert.True(t, snap.Environments[1].IsDeployment)
	assert.False(t, snap.Environments[0].IsDeployment)

	require.Len(t, snap.Jobs, 2)
	assert.Equal(t, int64(100), snap.Jobs[0].ID)
}

func TestNormalize_RequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		raw   *dbtcloud.RawAccount
		field string
	}{
		{"project without name", &dbtcloud.RawAccount{Projects: []dbtcloud.RawProject{{ID: 1}}}, "name"},
		{"environment without project", &dbtcloud.RawAccount{Environments: []dbtcloud.RawEnvironment{{ID: 1, Name: "e"}}}, "project_id"},
		{"job without environment", &dbtcloud.RawAccount{Jobs: []dbtcloud.RawJob{{ID: 1, ProjectID: 1, Name: "j"}}}, "environment_id"},
		{"job without name", &dbtcloud.RawAccount{Jobs: []dbtcloud.RawJob{{ID: 1, ProjectID: 1, EnvironmentID: 1}}}, "name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tc.field, schemaErr.Field)
		})
	}
}

func TestNormalize_SplitsScheduleAndTrigger(t *testing.T) {
	var enabled, disabled, downstream dbtcloud.RawJob
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 100, "project_id": 1, "environment_id": 10, "name": "with-schedule",
		"schedule": {"cron": "0 6 * * *"}, "triggers": {"schedule": true}
	}`), &enabled))
	// triggers.schedule false: the schedule exists but is disabled.
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 200, "project_id": 1, "environment_id": 10, "name": "paused-schedule",
		"schedule": {"cron": "30 2 * * 1"}, "triggers": {"schedule": false}
	}`), &disabled))
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 300, "project_id": 1, "environment_id": 10, "name": "triggered",
		"job_completion_trigger_condition": {"condition": {"job_id": 100, "statuses": [20]}}
	}`), &downstream))

	raw := &dbtcloud.RawAccount{
		Projects:     []dbtcloud.RawProject{{ID: 1, Name: "p"}},
		Environments: []dbtcloud.RawEnvironment{{ID: 10, Name: "prod", ProjectID: 1, Type: "deployment"}},
		Jobs:         []dbtcloud.RawJob{enabled, disabled, downstream},
	}

	snap, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, snap.Schedules, 2)
	assert.True(t, snap.Schedules[0].Enabled)
	assert.False(t, snap.Schedules[1].Enabled)
	assert.Equal(t, "30 2 * * 1", snap.Schedules[1].Cron)

	require.Len(t, snap.Triggers, 1)
	assert.Equal(t, int64(300), snap.Triggers[0].DownstreamJobID)
	assert.Equal(t, int64(100), snap.Triggers[0].UpstreamJobID)
	assert.Equal(t, TriggerOnFailure, snap.Triggers[0].Condition)
}

func TestNormalize_RepositoryURLSelection(t *testing.T) {
	raw := &dbtcloud.RawAccount{
		Projects: []dbtcloud.RawProject{
			{ID: 1, Name: "flat", RepositoryURL: "https://github.com/acme/warehouse.git"},
			{ID: 2, Name: "nested", Repository: &dbtcloud.RawRepository{RemoteURL: "git@github.com:acme/marts.git"}},
			{ID: 3, Name: "invalid", RepositoryURL: "not a url"},
		},
	}

	snap, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/warehouse.git", snap.Projects[0].RepositoryURL)
	assert.Equal(t, "git@github.com:acme/marts.git", snap.Projects[1].RepositoryURL)
	assert.Empty(t, snap.Projects[2].RepositoryURL)
}

func TestFlattenConnection_FlatAndNested(t *testing.T) {
	flatType, flatParams := flattenConnection(map[string]any{
		"type":       "snowflake",
		"id":         float64(7),
		"account":    "acme",
		"database":   "ANALYTICS",
		"created_at": "2020-01-01",
	})
	assert.Equal(t, "snowflake", flatType)
	assert.Equal(t, map[string]any{"account": "acme", "database": "ANALYTICS"}, flatParams)

	nestedType, nestedParams := flattenConnection(map[string]any{
		"connection_details": map[string]any{
			"fields": map[string]any{
				"type":    map[string]any{"value": "bigquery"},
				"project": map[string]any{"value": "acme-dw"},
				"dataset": map[string]any{"value": "analytics"},
			},
		},
	})
	assert.Equal(t, "bigquery", nestedType)
	assert.Equal(t, map[string]any{"project": "acme-dw", "dataset": "analytics"}, nestedParams)
}

func TestConditionFromStatuses(t *testing.T) {
	assert.Equal(t, TriggerOnSuccess, conditionFromStatuses(nil))
	assert.Equal(t, TriggerOnSuccess, conditionFromStatuses([]int{10, 20}))
	assert.Equal(t, TriggerOnFailure, conditionFromStatuses([]int{20}))
	assert.Equal(t, TriggerOnCanceled, conditionFromStatuses([]int{30}))
}
