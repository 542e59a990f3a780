// Package model defines the normalized, deployment-agnostic account model.
// An AccountSnapshot is built once per run by Normalize and never mutated
// afterwards; every later stage reads it as an immutable value.
package model

// TriggerCondition is the upstream run outcome a trigger fires on.
type TriggerCondition string

const (
	TriggerOnSuccess  TriggerCondition = "success"
	TriggerOnFailure  TriggerCondition = "failure"
	TriggerOnCanceled TriggerCondition = "canceled"
)

// AccountSnapshot is the immutable result of one retrieval pass.
type AccountSnapshot struct {
	Projects     []Project
	Environments []Environment
	Jobs         []Job
	Schedules    []Schedule
	Triggers     []Trigger
}

// Project is a source dbt project. Name uniqueness is not guaranteed.
type Project struct {
	ID            int64
	Name          string
	RepositoryURL string
}

// Environment is a named connection target associated with a project.
type Environment struct {
	ID               int64
	Name             string
	ProjectID        int64
	ConnectionType   string
	ConnectionParams map[string]any
	IsDeployment     bool
}

// Job is a named, parameterized execution unit.
type Job struct {
	ID            int64
	ProjectID     int64
	EnvironmentID int64
	Name          string
	Description   string
	ExecuteSteps  []string
	ThreadCount   int
	TargetName    string
}

// Schedule is a cron trigger attached to at most one job.
type Schedule struct {
	JobID   int64
	Cron    string
	Enabled bool
}

// Trigger is a job-completion edge: when the upstream job's run finishes with
// Condition, the downstream job should start.
type Trigger struct {
	DownstreamJobID int64
	UpstreamJobID   int64
	Condition       TriggerCondition
}

// EnvironmentByID returns the environment with the given id, if present.
func (s *AccountSnapshot) EnvironmentByID(id int64) (Environment, bool) {
	for _, e := range s.Environments {
		if e.ID == id {
			return e, true
		}
	}
	return Environment{}, false
}

// JobByID returns the job with the given id, if present.
func (s *AccountSnapshot) JobByID(id int64) (Job, bool) {
	for _, j := range s.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return Job{}, false
}

// ScheduleForJob returns the job's schedule, if any.
func (s *AccountSnapshot) ScheduleForJob(jobID int64) (Schedule, bool) {
	for _, sc := range s.Schedules {
		if sc.JobID == jobID {
			return sc, true
		}
	}
	return Schedule{}, false
}
