package migrate

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/dagshift/dagshift/internal/model"
)

// =============================================================================
// JOB / SCHEDULE / TRIGGER MAPPER
// Converts source jobs into target job definitions, cron schedules into
// target schedules, and job-completion triggers into run-status sensors.
// The trigger graph is cycle-checked before any sensor is produced.
// =============================================================================

// GeneratedJob is one target job definition. ThreadCount and TargetName are
// preserved verbatim from the source job.
type GeneratedJob struct {
	Name           string
	Description    string
	AssetSelection string
	Profile        string
	TargetName     string
	ThreadCount    int
	SourceJobID    int64
}

// GeneratedSchedule is a cron-triggered schedule bound to a generated job.
type GeneratedSchedule struct {
	Name    string
	JobName string
	Cron    string
}

// GeneratedSensor launches JobName when MonitoredJobName's run reaches RunStatus.
type GeneratedSensor struct {
	Name             string
	JobName          string
	MonitoredJobName string
	RunStatus        string
}

// GeneratedComponent is the per-project artifact bundle, constructed fresh
// each run from the mapped entities.
type GeneratedComponent struct {
	ProjectID     int64
	ProjectSlug   string
	OutputPath    string
	RepositoryURL string
	Jobs          []GeneratedJob
	Schedules     []GeneratedSchedule
	Sensors       []GeneratedSensor
}

// SkippedSchedule records a disabled schedule excluded from emission.
type SkippedSchedule struct {
	JobID int64
	Cron  string
}

// MapResult is the outcome of one mapping pass.
type MapResult struct {
	Components       []GeneratedComponent
	SkippedSchedules []SkippedSchedule
	Warnings         []Warning
}

// runStatusFor maps a trigger condition onto the target run-status vocabulary.
var runStatusFor = map[model.TriggerCondition]string{
	model.TriggerOnSuccess:  "SUCCESS",
	model.TriggerOnFailure:  "FAILURE",
	model.TriggerOnCanceled: "CANCELED",
}

// MapJobs converts the snapshot's jobs, schedules, and triggers into
// per-project generated components. A job whose environment_id does not
// resolve fails the whole run with a DanglingReferenceError; a cyclic trigger
// graph fails it with a TriggerCycleError before any sensor exists.
func MapJobs(snap *model.AccountSnapshot, profiles map[string]*GeneratedProfile, layout map[int64]string) (*MapResult, error) {
	res := &MapResult{}

	profileByEnv := make(map[int64]string, len(profiles))
	for name, p := range profiles {
		if p.SourceEnvironmentID != 0 {
			profileByEnv[p.SourceEnvironmentID] = name
		}
	}

	// Deterministic generated job names, unique within a project even when
	// source names repeat.
	jobNames, err := assignJobNames(snap, layout)
	if err != nil {
		return nil, err
	}

	if err := detectTriggerCycles(snap.Triggers); err != nil {
		return nil, err
	}

	cronParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	projects := append([]model.Project(nil), snap.Projects...)
	sort.Slice(projects, func(i, k int) bool { return projects[i].ID < projects[k].ID })

	for _, project := range projects {
		slug := layout[project.ID]
		comp := GeneratedComponent{
			ProjectID:     project.ID,
			ProjectSlug:   slug,
			OutputPath:    path.Join("defs", slug),
			RepositoryURL: project.RepositoryURL,
		}
		if project.RepositoryURL == "" {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnMissingRepository,
				Entity:  fmt.Sprintf("project %q (id=%d)", project.Name, project.ID),
				Message: "no git repository URL found in project metadata; set project_dir manually",
			})
		}

		for _, job := range jobsOfProject(snap, project.ID) {
			env, ok := snap.EnvironmentByID(job.EnvironmentID)
			if !ok {
				return nil, &DanglingReferenceError{JobID: job.ID, EnvironmentID: job.EnvironmentID}
			}

			genName := jobNames[job.ID]
			comp.Jobs = append(comp.Jobs, GeneratedJob{
				Name:           genName,
				Description:    jobDescription(job),
				AssetSelection: assetSelection(job.ExecuteSteps, SlugifyUnderscore(slug)),
				Profile:        profileByEnv[env.ID],
				TargetName:     job.TargetName,
				ThreadCount:    job.ThreadCount,
				SourceJobID:    job.ID,
			})

			if sched, ok := snap.ScheduleForJob(job.ID); ok {
				if !sched.Enabled {
					res.SkippedSchedules = append(res.SkippedSchedules, SkippedSchedule{JobID: job.ID, Cron: sched.Cron})
					continue
				}
				if _, err := cronParser.Parse(sched.Cron); err != nil {
					res.Warnings = append(res.Warnings, Warning{
						Code:    WarnInvalidCron,
						Entity:  fmt.Sprintf("job %q (id=%d)", job.Name, job.ID),
						Message: fmt.Sprintf("cron expression %q did not parse (%v); review the emitted schedule", sched.Cron, err),
					})
				}
				comp.Schedules = append(comp.Schedules, GeneratedSchedule{
					Name:    genName + "_schedule",
					JobName: genName,
					Cron:    sched.Cron,
				})
			}
		}

		res.Components = append(res.Components, comp)
	}

	// Sensors attach to the downstream job's project.
	componentByProject := make(map[int64]*GeneratedComponent, len(res.Components))
	for i := range res.Components {
		componentByProject[res.Components[i].ProjectID] = &res.Components[i]
	}

	for _, trig := range snap.Triggers {
		downstream, ok := snap.JobByID(trig.DownstreamJobID)
		if !ok {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnUnknownTriggerJob,
				Entity:  fmt.Sprintf("trigger %d -> %d", trig.UpstreamJobID, trig.DownstreamJobID),
				Message: fmt.Sprintf("downstream job %d is not in the snapshot; sensor skipped", trig.DownstreamJobID),
			})
			continue
		}
		upstreamName, ok := jobNames[trig.UpstreamJobID]
		if !ok {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnUnknownTriggerJob,
				Entity:  fmt.Sprintf("trigger %d -> %d", trig.UpstreamJobID, trig.DownstreamJobID),
				Message: fmt.Sprintf("upstream job %d is not in the snapshot; sensor skipped", trig.UpstreamJobID),
			})
			continue
		}

		comp := componentByProject[downstream.ProjectID]
		downstreamName := jobNames[downstream.ID]
		comp.Sensors = append(comp.Sensors, GeneratedSensor{
			Name:             downstreamName + "_sensor",
			JobName:          downstreamName,
			MonitoredJobName: upstreamName,
			RunStatus:        runStatusFor[trig.Condition],
		})
	}

	return res, nil
}

// assignJobNames produces the generated job name for every job id:
// <project_slug>_<job_slug>, with the job id appended when two jobs in the
// same project slug to the same name.
func assignJobNames(snap *model.AccountSnapshot, layout map[int64]string) (map[int64]string, error) {
	names := make(map[int64]string, len(snap.Jobs))
	claimed := map[string]bool{}

	jobs := append([]model.Job(nil), snap.Jobs...)
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })

	for _, job := range jobs {
		slug, ok := layout[job.ProjectID]
		if !ok {
			return nil, fmt.Errorf("job %d belongs to project %d, which has no layout entry", job.ID, job.ProjectID)
		}
		jobSlug := SlugifyUnderscore(job.Name)
		if jobSlug == "" {
			jobSlug = fmt.Sprintf("job_%d", job.ID)
		}
		name := fmt.Sprintf("%s_%s", SlugifyUnderscore(slug), jobSlug)
		for claimed[name] {
			name = fmt.Sprintf("%s_%d", name, job.ID)
		}
		claimed[name] = true
		names[job.ID] = name
	}
	return names, nil
}

func jobsOfProject(snap *model.AccountSnapshot, projectID int64) []model.Job {
	var out []model.Job
	for _, j := range snap.Jobs {
		if j.ProjectID == projectID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func jobDescription(job model.Job) string {
	if job.Description != "" {
		return job.Description
	}
	return fmt.Sprintf("Job migrated from dbt Cloud: %s", job.Name)
}

// assetSelection extracts the dbt selection from the job's execute steps.
// Steps like "dbt build --select model_a+ model_b" contribute their selector
// tokens; a job with no explicit selection runs the whole component.
func assetSelection(steps []string, componentKey string) string {
	var selected []string
	seen := map[string]bool{}

	for _, step := range steps {
		tokens := strings.Fields(step)
		for i := 0; i < len(tokens); i++ {
			if tokens[i] != "--select" && tokens[i] != "-s" {
				continue
			}
			for j := i + 1; j < len(tokens) && !strings.HasPrefix(tokens[j], "-"); j++ {
				if !seen[tokens[j]] {
					seen[tokens[j]] = true
					selected = append(selected, tokens[j])
				}
				i = j
			}
		}
	}

	if len(selected) == 0 {
		return componentKey + ".*"
	}
	return strings.Join(selected, " ")
}

// =============================================================================
// TRIGGER GRAPH CYCLE DETECTION
// Depth-first walk with a visiting set. Self-references are one-node cycles.
// =============================================================================

func detectTriggerCycles(triggers []model.Trigger) error {
	adj := map[int64][]int64{}
	nodes := map[int64]bool{}
	for _, t := range triggers {
		adj[t.UpstreamJobID] = append(adj[t.UpstreamJobID], t.DownstreamJobID)
		nodes[t.UpstreamJobID] = true
		nodes[t.DownstreamJobID] = true
	}

	ordered := make([]int64, 0, len(nodes))
	for n := range nodes {
		ordered = append(ordered, n)
	}
	sort.Slice(ordered, func(i, k int) bool { return ordered[i] < ordered[k] })

	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := map[int64]int{}
	var stack []int64

	var visit func(n int64) *TriggerCycleError
	visit = func(n int64) *TriggerCycleError {
		color[n] = gray
		stack = append(stack, n)
		for _, next := range adj[n] {
			switch color[next] {
			case gray:
				// Back edge: the cycle is the stack suffix from next onward.
				var cycle []int64
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i])
					if stack[i] == next {
						break
					}
				}
				return &TriggerCycleError{JobIDs: cycle}
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return nil
	}

	for _, n := range ordered {
		if color[n] == white {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
