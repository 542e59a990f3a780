package model

import (
	"fmt"
	"sort"

	"github.com/dagshift/dagshift/internal/dbtcloud"
	"github.com/dagshift/dagshift/internal/gitrepo"
)

// SchemaError indicates a source record violates a required-field invariant.
type SchemaError struct {
	Resource string
	ID       int64
	Field    string
}

func (e *SchemaError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d: required field %q is missing", e.Resource, e.ID, e.Field)
	}
	return fmt.Sprintf("%s: required field %q is missing", e.Resource, e.Field)
}

// Normalize converts raw API payloads into an AccountSnapshot. Unknown fields
// were already dropped at decode time; missing required fields fail with a
// SchemaError. Records repeated across pages are deduplicated by id.
// Collections are sorted by ascending id so repeated runs over identical
// input produce identical snapshots.
func Normalize(raw *dbtcloud.RawAccount) (*AccountSnapshot, error) {
	snap := &AccountSnapshot{}

	seenProjects := map[int64]bool{}
	for _, p := range raw.Projects {
		if p.ID == 0 {
			return nil, &SchemaError{Resource: "project", Field: "id"}
		}
		if seenProjects[p.ID] {
			continue
		}
		seenProjects[p.ID] = true
		if p.Name == "" {
			return nil, &SchemaError{Resource: "project", ID: p.ID, Field: "name"}
		}
		snap.Projects = append(snap.Projects, Project{
			ID:            p.ID,
			Name:          p.Name,
			RepositoryURL: repositoryURL(p),
		})
	}

	seenEnvs := map[int64]bool{}
	for _, e := range raw.Environments {
		if e.ID == 0 {
			return nil, &SchemaError{Resource: "environment", Field: "id"}
		}
		if seenEnvs[e.ID] {
			continue
		}
		seenEnvs[e.ID] = true
		if e.Name == "" {
			return nil, &SchemaError{Resource: "environment", ID: e.ID, Field: "name"}
		}
		if e.ProjectID == 0 {
			return nil, &SchemaError{Resource: "environment", ID: e.ID, Field: "project_id"}
		}
		connType, params := flattenConnection(e.Connection)
		snap.Environments = append(snap.Environments, Environment{
			ID:               e.ID,
			Name:             e.Name,
			ProjectID:        e.ProjectID,
			ConnectionType:   connType,
			ConnectionParams: params,
			IsDeployment:     e.Type == "deployment",
		})
	}

	seenJobs := map[int64]bool{}
	for _, j := range raw.Jobs {
		if j.ID == 0 {
			return nil, &SchemaError{Resource: "job", Field: "id"}
		}
		if seenJobs[j.ID] {
			continue
		}
		seenJobs[j.ID] = true
		if j.Name == "" {
			return nil, &SchemaError{Resource: "job", ID: j.ID, Field: "name"}
		}
		if j.ProjectID == 0 {
			return nil, &SchemaError{Resource: "job", ID: j.ID, Field: "project_id"}
		}
		if j.EnvironmentID == 0 {
			return nil, &SchemaError{Resource: "job", ID: j.ID, Field: "environment_id"}
		}

		snap.Jobs = append(snap.Jobs, Job{
			ID:            j.ID,
			ProjectID:     j.ProjectID,
			EnvironmentID: j.EnvironmentID,
			Name:          j.Name,
			Description:   j.Description,
			ExecuteSteps:  append([]string(nil), j.ExecuteSteps...),
			ThreadCount:   j.Settings.Threads,
			TargetName:    j.Settings.TargetName,
		})

		// The source embeds the schedule on the job record; it becomes a
		// standalone Schedule keyed by job id. triggers.schedule carries the
		// enabled flag.
		if j.Schedule != nil && j.Schedule.Cron != "" {
			snap.Schedules = append(snap.Schedules, Schedule{
				JobID:   j.ID,
				Cron:    j.Schedule.Cron,
				Enabled: j.Triggers.Schedule,
			})
		}

		if tc := j.JobCompletionTriggerCondition; tc != nil {
			if tc.Condition.JobID == 0 {
				return nil, &SchemaError{Resource: "trigger", ID: j.ID, Field: "condition.job_id"}
			}
			snap.Triggers = append(snap.Triggers, Trigger{
				DownstreamJobID: j.ID,
				UpstreamJobID:   tc.Condition.JobID,
				Condition:       conditionFromStatuses(tc.Condition.Statuses),
			})
		}
	}

	sort.Slice(snap.Projects, func(i, k int) bool { return snap.Projects[i].ID < snap.Projects[k].ID })
	sort.Slice(snap.Environments, func(i, k int) bool { return snap.Environments[i].ID < snap.Environments[k].ID })
	sort.Slice(snap.Jobs, func(i, k int) bool { return snap.Jobs[i].ID < snap.Jobs[k].ID })
	sort.Slice(snap.Schedules, func(i, k int) bool { return snap.Schedules[i].JobID < snap.Schedules[k].JobID })
	sort.Slice(snap.Triggers, func(i, k int) bool { return snap.Triggers[i].DownstreamJobID < snap.Triggers[k].DownstreamJobID })

	return snap, nil
}

// repositoryURL picks the first valid git URL from the project metadata.
func repositoryURL(p dbtcloud.RawProject) string {
	candidates := []string{p.RepositoryURL}
	if p.Repository != nil {
		candidates = append(candidates, p.Repository.RemoteURL, p.Repository.GitURL)
	}
	for _, c := range candidates {
		if c != "" && gitrepo.ValidateURL(c) {
			return c
		}
	}
	return ""
}

// flattenConnection extracts the connection type and a flat parameter map
// from either payload encoding: flat keys on the connection object, or
// connection_details.fields.<name>.value.
func flattenConnection(conn map[string]any) (string, map[string]any) {
	if len(conn) == 0 {
		return "", nil
	}

	params := map[string]any{}

	for k, v := range conn {
		switch k {
		case "type", "connection_details", "id", "created_at", "updated_at", "state", "account_id":
			continue
		}
		if isScalar(v) {
			params[k] = v
		}
	}

	if details, ok := conn["connection_details"].(map[string]any); ok {
		if fields, ok := details["fields"].(map[string]any); ok {
			for name, f := range fields {
				if name == "type" {
					continue
				}
				field, ok := f.(map[string]any)
				if !ok {
					continue
				}
				if v, ok := field["value"]; ok && isScalar(v) {
					params[name] = v
				}
			}
		}
	}

	connType := ""
	for _, key := range []string{"type", "connection_type", "adapter_type"} {
		if s, ok := conn[key].(string); ok && s != "" {
			connType = s
			break
		}
	}
	if connType == "" {
		if details, ok := conn["connection_details"].(map[string]any); ok {
			if fields, ok := details["fields"].(map[string]any); ok {
				if f, ok := fields["type"].(map[string]any); ok {
					if s, ok := f["value"].(string); ok {
						connType = s
					}
				}
			}
		}
	}

	if len(params) == 0 {
		params = nil
	}
	return connType, params
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float64, int, int64:
		return true
	}
	return false
}

// conditionFromStatuses maps dbt Cloud run status codes onto a trigger
// condition. 10=success, 20=error, 30=cancelled; an empty list means the
// default success condition.
func conditionFromStatuses(statuses []int) TriggerCondition {
	if len(statuses) == 0 {
		return TriggerOnSuccess
	}
	for _, s := range statuses {
		if s == 10 {
			return TriggerOnSuccess
		}
	}
	switch statuses[0] {
	case 20:
		return TriggerOnFailure
	case 30:
		return TriggerOnCanceled
	}
	return TriggerOnSuccess
}
