package dbtcloud

import "encoding/json"

// =============================================================================
// DBT CLOUD API RESPONSE TYPES
// Raw wire shapes. Unknown fields are ignored by encoding/json; required-field
// enforcement happens in the normalizer, not here.
// =============================================================================

// envelope is the standard dbt Cloud v2 response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status struct {
		Code        int    `json:"code"`
		UserMessage string `json:"user_message"`
	} `json:"status"`
}

// RawProject is a dbt Cloud project record.
type RawProject struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	RepositoryURL string         `json:"repository_url,omitempty"`
	Repository    *RawRepository `json:"repository,omitempty"`
}

// RawRepository is the repository block attached to a project.
type RawRepository struct {
	RemoteURL string `json:"remote_url,omitempty"`
	GitURL    string `json:"git_url,omitempty"`
}

// RawEnvironment is a dbt Cloud environment record. Connection parameters can
// arrive flat on the connection object or nested under
// connection_details.fields.<name>.value; both encodings are preserved here
// and flattened by the normalizer.
type RawEnvironment struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	ProjectID  int64          `json:"project_id"`
	Type       string         `json:"type"` // "deployment" or "development"
	Connection map[string]any `json:"connection,omitempty"`
}

// RawJob is a dbt Cloud job record, including its embedded schedule and
// job-completion trigger condition.
type RawJob struct {
	ID            int64    `json:"id"`
	ProjectID     int64    `json:"project_id"`
	EnvironmentID int64    `json:"environment_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ExecuteSteps  []string `json:"execute_steps"`

	Settings struct {
		Threads    int    `json:"threads"`
		TargetName string `json:"target_name"`
	} `json:"settings"`

	Schedule *struct {
		Cron string `json:"cron"`
	} `json:"schedule,omitempty"`

	Triggers struct {
		Schedule bool `json:"schedule"`
	} `json:"triggers"`

	JobCompletionTriggerCondition *struct {
		Condition struct {
			JobID    int64 `json:"job_id"`
			Statuses []int `json:"statuses"`
		} `json:"condition"`
	} `json:"job_completion_trigger_condition,omitempty"`
}

// RawAccount bundles the raw collections of one retrieval pass.
type RawAccount struct {
	Projects     []RawProject
	Environments []RawEnvironment
	Jobs         []RawJob
}
