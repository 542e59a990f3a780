package emit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/dagshift/dagshift/internal/migrate"
)

// Summary captures the counts and caveats of one migration run. It carries
// no timestamps so the rendered report only changes when the account does.
type Summary struct {
	AccountID int64

	ProjectCount     int
	EnvironmentCount int
	JobCount         int
	ScheduleCount    int
	SensorCount      int
	ProfileCount     int

	Adapters         []string
	SkippedSchedules []migrate.SkippedSchedule
	Warnings         []migrate.Warning
	Components       []migrate.GeneratedComponent
}

// Render produces the MIGRATION_SUMMARY.md document.
func (s *Summary) Render() []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Migration Summary\n\n")
	fmt.Fprintf(&b, "Source account: %d\n\n", s.AccountID)

	fmt.Fprintf(&b, "## Counts\n\n")
	fmt.Fprintf(&b, "| Entity | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Projects | %d |\n", s.ProjectCount)
	fmt.Fprintf(&b, "| Environments | %d |\n", s.EnvironmentCount)
	fmt.Fprintf(&b, "| Jobs | %d |\n", s.JobCount)
	fmt.Fprintf(&b, "| Schedules | %d |\n", s.ScheduleCount)
	fmt.Fprintf(&b, "| Sensors | %d |\n", s.SensorCount)
	fmt.Fprintf(&b, "| Profiles | %d |\n\n", s.ProfileCount)

	fmt.Fprintf(&b, "## Components\n\n")
	if len(s.Components) == 0 {
		b.WriteString("No projects were found in the source account.\n\n")
	}
	for _, comp := range s.Components {
		fmt.Fprintf(&b, "### %s (project %d)\n\n", comp.ProjectSlug, comp.ProjectID)
		if comp.RepositoryURL != "" {
			fmt.Fprintf(&b, "Repository: `%s`\n\n", comp.RepositoryURL)
		} else {
			b.WriteString("Repository: not detected; clone the dbt project into " +
				"`dbt_projects/" + comp.ProjectSlug + "` manually.\n\n")
		}
		for _, job := range comp.Jobs {
			fmt.Fprintf(&b, "- job `%s` (source id %d), selection `%s`\n", job.Name, job.SourceJobID, job.AssetSelection)
		}
		for _, sched := range comp.Schedules {
			fmt.Fprintf(&b, "- schedule `%s`: `%s`\n", sched.Name, sched.Cron)
		}
		for _, sensor := range comp.Sensors {
			fmt.Fprintf(&b, "- sensor `%s`: runs `%s` when `%s` reaches %s\n",
				sensor.Name, sensor.JobName, sensor.MonitoredJobName, sensor.RunStatus)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "## Required adapters\n\n")
	adapters := append([]string(nil), s.Adapters...)
	sort.Strings(adapters)
	for _, a := range adapters {
		fmt.Fprintf(&b, "- `%s`\n", a)
	}
	b.WriteByte('\n')

	if len(s.SkippedSchedules) > 0 {
		fmt.Fprintf(&b, "## Skipped schedules\n\n")
		b.WriteString("These schedules were disabled at the source and were not migrated:\n\n")
		skipped := append([]migrate.SkippedSchedule(nil), s.SkippedSchedules...)
		sort.Slice(skipped, func(i, k int) bool { return skipped[i].JobID < skipped[k].JobID })
		for _, sk := range skipped {
			fmt.Fprintf(&b, "- job %d: `%s`\n", sk.JobID, sk.Cron)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "## Warnings\n\n")
	if len(s.Warnings) == 0 {
		b.WriteString("None.\n")
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "- %s\n", w.String())
	}

	fmt.Fprintf(&b, "\n## Next steps\n\n")
	b.WriteString("1. Fill in every placeholder value in `.env`.\n")
	b.WriteString("2. Clone each dbt project listed above into `dbt_projects/`.\n")
	b.WriteString("3. Install the adapter packages and run `dbt debug` against the `local` target.\n")
	b.WriteString("4. Run `dg dev` and verify assets, jobs, schedules, and sensors load.\n")

	return b.Bytes()
}
