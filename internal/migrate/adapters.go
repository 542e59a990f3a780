package migrate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dagshift/dagshift/internal/model"
)

// =============================================================================
// ADAPTER DETECTION / ENV VAR EXTRACTION
// =============================================================================

// adapterPackages maps dbt profile types to the adapter package that must be
// installed alongside the generated project.
var adapterPackages = map[string]string{
	"snowflake":  "dbt-snowflake",
	"bigquery":   "dbt-bigquery",
	"postgres":   "dbt-postgres",
	"redshift":   "dbt-redshift",
	"databricks": "dbt-databricks",
	"spark":      "dbt-spark",
	"trino":      "dbt-trino",
	"sqlserver":  "dbt-sqlserver",
	"fabric":     "dbt-fabric",
	"synapse":    "dbt-synapse",
	"athena":     "dbt-athena",
	"teradata":   "dbt-teradata",
	"duckdb":     "dbt-duckdb",
}

// DetectAdapters returns the sorted, deduplicated adapter packages required
// by the generated profiles. The duckdb adapter is always present because
// every profile carries the local development target.
func DetectAdapters(profiles map[string]*GeneratedProfile) []string {
	seen := map[string]bool{}
	for _, p := range profiles {
		for _, target := range p.Targets {
			t, _ := target["type"].(string)
			if pkg, ok := adapterPackages[t]; ok {
				seen[pkg] = true
			}
		}
	}
	seen[adapterPackages["duckdb"]] = true

	out := make([]string, 0, len(seen))
	for pkg := range seen {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// SecretPlaceholder marks variables whose values must be supplied by the
// operator; credentials are never read from the source account.
const SecretPlaceholder = "<SET_MANUALLY>"

var envVarRef = regexp.MustCompile(`env_var\(\s*['"]([A-Za-z_][A-Za-z0-9_]*)['"]\s*(?:,\s*['"]([^'"]*)['"]\s*)?\)`)

// ExtractEnvVars collects every env_var reference reachable from the
// generated profiles and the jobs' execute steps. References with an inline
// default keep it; the rest are rendered as placeholders to fill in.
func ExtractEnvVars(profiles map[string]*GeneratedProfile, jobs []model.Job) map[string]string {
	vars := map[string]string{}

	record := func(s string) {
		for _, m := range envVarRef.FindAllStringSubmatch(s, -1) {
			name, def := m[1], m[2]
			if def == "" {
				def = SecretPlaceholder
			}
			if existing, ok := vars[name]; !ok || existing == SecretPlaceholder {
				vars[name] = def
			}
		}
	}

	for _, p := range profiles {
		for _, target := range p.Targets {
			for _, v := range target {
				if s, ok := v.(string); ok {
					record(s)
				}
			}
		}
	}
	for _, job := range jobs {
		for _, step := range job.ExecuteSteps {
			record(step)
			// Shell-style references in steps also need a home in .env.
			for _, tok := range strings.Fields(step) {
				if strings.HasPrefix(tok, "$") && len(tok) > 1 {
					name := strings.Trim(tok[1:], "{}")
					if isEnvName(name) {
						if _, ok := vars[name]; !ok {
							vars[name] = SecretPlaceholder
						}
					}
				}
			}
		}
	}
	return vars
}

func isEnvName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// SortedEnvVars renders the variable map as deterministic KEY=VALUE lines.
func SortedEnvVars(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	return lines
}
