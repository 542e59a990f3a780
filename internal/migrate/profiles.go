package migrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dagshift/dagshift/internal/model"
)

// =============================================================================
// PROFILE GENERATOR
// One connection profile per environment. The primary target carries the
// environment's live connection parameters; a file-based duckdb `local`
// target is always added so every profile works offline. A synthesized
// `default` profile keeps projects that reference `profile: default` working.
// =============================================================================

// LocalTargetName is the offline development target present in every profile.
const LocalTargetName = "local"

// GeneratedProfile is one named bundle of per-target connection parameters.
type GeneratedProfile struct {
	Name          string
	PrimaryTarget string
	DefaultTarget string
	Targets       map[string]map[string]any

	// SourceEnvironmentID is 0 for the synthesized default profile.
	SourceEnvironmentID int64
}

// profileTypes maps source connection types to dbt profile types. Types
// absent here are unsupported: their parameters are still carried over, but
// the profile is flagged for manual completion.
var profileTypes = map[string]string{
	"snowflake":        "snowflake",
	"bigquery":         "bigquery",
	"postgres":         "postgres",
	"alloydb":          "postgres",
	"redshift":         "redshift",
	"databricks":       "databricks",
	"spark":            "spark",
	"apache_spark":     "spark",
	"trino":            "trino",
	"starburst":        "trino",
	"sqlserver":        "sqlserver",
	"synapse":          "sqlserver",
	"azure_synapse":    "sqlserver",
	"fabric":           "sqlserver",
	"microsoft_fabric": "sqlserver",
	"athena":           "athena",
	"teradata":         "teradata",
	"duckdb":           "duckdb",
}

// secretParam names the credential parameter a profile type expects. Secrets
// are never copied from the source; they are rendered as env_var lookups.
var secretParam = map[string]string{
	"snowflake":  "password",
	"bigquery":   "keyfile",
	"databricks": "token",
	"spark":      "token",
	"trino":      "password",
	"athena":     "",
	"duckdb":     "",
}

// GenerateProfiles derives one profile per environment plus the `default`
// profile. Environments are processed in ascending id order so repeated runs
// produce byte-identical output for identical input.
func GenerateProfiles(environments []model.Environment) (map[string]*GeneratedProfile, []Warning) {
	ordered := append([]model.Environment(nil), environments...)
	sort.Slice(ordered, func(i, k int) bool { return ordered[i].ID < ordered[k].ID })

	profiles := make(map[string]*GeneratedProfile, len(ordered)+1)
	var warnings []Warning

	var firstProfile, firstDeployment *GeneratedProfile
	for _, env := range ordered {
		name := SlugifyUnderscore(env.Name)
		if name == "" {
			name = fmt.Sprintf("environment_%d", env.ID)
		}
		for _, taken := profiles[name]; taken; _, taken = profiles[name] {
			name = fmt.Sprintf("%s_%d", name, env.ID)
		}

		target, warn := buildTarget(env, name)
		if warn != nil {
			warnings = append(warnings, *warn)
		}

		p := &GeneratedProfile{
			Name:                name,
			PrimaryTarget:       name,
			DefaultTarget:       LocalTargetName,
			SourceEnvironmentID: env.ID,
			Targets: map[string]map[string]any{
				name:            target,
				LocalTargetName: localTarget(),
			},
		}
		profiles[name] = p

		if firstProfile == nil {
			firstProfile = p
		}
		if firstDeployment == nil && env.IsDeployment {
			firstDeployment = p
		}
	}

	source := firstDeployment
	if source == nil {
		source = firstProfile
	}
	profiles["default"] = defaultProfile(source)
	return profiles, warnings
}

// buildTarget copies the environment's connection parameters verbatim into a
// profile target, sets the dbt profile type, and adds an env_var placeholder
// for the type's credential when the source (correctly) omits it.
func buildTarget(env model.Environment, profileName string) (map[string]any, *Warning) {
	target := make(map[string]any, len(env.ConnectionParams)+2)
	for k, v := range env.ConnectionParams {
		target[k] = v
	}

	connType := strings.ToLower(env.ConnectionType)
	profileType, supported := profileTypes[connType]

	var warn *Warning
	if !supported {
		if connType == "" {
			profileType = "postgres"
		} else {
			profileType = connType
		}
		warn = &Warning{
			Code:   WarnUnsupportedConnectionType,
			Entity: fmt.Sprintf("environment %q (id=%d)", env.Name, env.ID),
			Message: fmt.Sprintf("connection type %q has no known dbt profile mapping; profile %q needs manual completion",
				env.ConnectionType, profileName),
		}
	}
	target["type"] = profileType

	secret := "password"
	if s, ok := secretParam[profileType]; ok {
		secret = s
	}
	if secret != "" {
		// Never copy credentials from the source account.
		target[secret] = fmt.Sprintf("{{ env_var('DBT_%s_%s') }}", strings.ToUpper(profileName), strings.ToUpper(secret))
	}

	return target, warn
}

// localTarget is the dependency-free duckdb target for offline development.
func localTarget() map[string]any {
	return map[string]any{
		"type":   "duckdb",
		"path":   "{{ env_var('DBT_DUCKDB_PATH', 'local_dev.duckdb') }}",
		"schema": "{{ env_var('DBT_DUCKDB_SCHEMA', 'dev') }}",
	}
}

// defaultProfile clones the chosen source profile under the name `default`,
// or synthesizes a minimal one when the account has no environments.
func defaultProfile(source *GeneratedProfile) *GeneratedProfile {
	if source == nil {
		return &GeneratedProfile{
			Name:          "default",
			PrimaryTarget: "prod",
			DefaultTarget: LocalTargetName,
			Targets: map[string]map[string]any{
				"prod": {
					"type":     "postgres",
					"host":     "{{ env_var('DBT_HOST') }}",
					"user":     "{{ env_var('DBT_USER') }}",
					"password": "{{ env_var('DBT_PASSWORD') }}",
					"port":     5432,
					"dbname":   "{{ env_var('DBT_DATABASE') }}",
					"schema":   "{{ env_var('DBT_SCHEMA') }}",
				},
				LocalTargetName: localTarget(),
			},
		}
	}

	targets := make(map[string]map[string]any, len(source.Targets))
	for name, params := range source.Targets {
		copied := make(map[string]any, len(params))
		for k, v := range params {
			copied[k] = v
		}
		targets[name] = copied
	}
	return &GeneratedProfile{
		Name:          "default",
		PrimaryTarget: source.PrimaryTarget,
		DefaultTarget: LocalTargetName,
		Targets:       targets,
	}
}
