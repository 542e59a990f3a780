package emit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dagshift/dagshift/internal/migrate"
)

// =============================================================================
// ARTIFACT EMITTER
// All artifacts are written into a staging directory first and swapped into
// the output root only once every file rendered cleanly. A failed run leaves
// previously emitted artifacts untouched. Emission is deterministic: the same
// inputs produce byte-identical output on every run.
// =============================================================================

// Artifacts is everything one mapping run produces for disk.
type Artifacts struct {
	Components []migrate.GeneratedComponent
	Profiles   map[string]*migrate.GeneratedProfile
	EnvVars    map[string]string
	Summary    *Summary
}

// generatedEntries are the output-root entries the emitter owns. Anything
// else in the output directory (cloned dbt projects, operator edits outside
// these paths) is never touched.
var generatedEntries = []string{
	"defs",
	"profiles.yml",
	".env",
	"MIGRATION_SUMMARY.md",
}

// Emitter writes one run's artifacts beneath a single output root.
type Emitter struct {
	outputDir string
	pkgName   string
}

// NewEmitter returns an emitter rooted at outputDir. The directory's base
// name doubles as the generated project's package name.
func NewEmitter(outputDir string) *Emitter {
	pkg := slugPackage(filepath.Base(filepath.Clean(outputDir)))
	return &Emitter{outputDir: outputDir, pkgName: pkg}
}

func slugPackage(base string) string {
	if s := migrate.SlugifyUnderscore(base); s != "" {
		return s
	}
	return "dagster_dbt_migration"
}

// Emit renders every artifact into a staging directory and atomically swaps
// the generated entries into the output root.
func (e *Emitter) Emit(arts *Artifacts) error {
	abs, err := filepath.Abs(e.outputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create output parent: %w", err)
	}

	staging := filepath.Join(filepath.Dir(abs), ".dagshift-stage-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := e.renderTree(staging, arts); err != nil {
		return err
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return installEntries(staging, abs)
}

// installEntries swaps the staged generated entries into the output root in
// two phases: every stale destination is cleared before the first rename, so
// a failure mid-clear never leaves old and new generations mixed. Entries the
// run did not stage are left alone.
func installEntries(staging, root string) error {
	staged := make([]string, 0, len(generatedEntries))
	for _, entry := range generatedEntries {
		if _, err := os.Stat(filepath.Join(staging, entry)); os.IsNotExist(err) {
			continue
		}
		staged = append(staged, entry)
	}
	for _, entry := range staged {
		if err := os.RemoveAll(filepath.Join(root, entry)); err != nil {
			return fmt.Errorf("clear %s: %w", entry, err)
		}
	}
	for _, entry := range staged {
		if err := os.Rename(filepath.Join(staging, entry), filepath.Join(root, entry)); err != nil {
			return fmt.Errorf("install %s: %w", entry, err)
		}
	}
	return nil
}

func (e *Emitter) renderTree(root string, arts *Artifacts) error {
	for _, comp := range arts.Components {
		if err := e.renderComponent(root, comp); err != nil {
			return err
		}
	}
	if err := writeYAML(filepath.Join(root, "profiles.yml"), profilesDocument(arts.Profiles)); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(root, ".env"), renderEnvFile(arts.EnvVars)); err != nil {
		return err
	}
	if arts.Summary != nil {
		if err := writeFile(filepath.Join(root, "MIGRATION_SUMMARY.md"), arts.Summary.Render()); err != nil {
			return err
		}
	}
	return nil
}

// componentDef is the on-disk shape of a single defs.yaml.
type componentDef struct {
	Type       string         `yaml:"type"`
	Attributes map[string]any `yaml:"attributes"`
}

func (e *Emitter) renderComponent(root string, comp migrate.GeneratedComponent) error {
	projectDef := componentDef{
		Type: "dagster_dbt.DbtProjectComponent",
		Attributes: map[string]any{
			"project": map[string]any{
				"project_dir":  "../../../dbt_projects/" + comp.ProjectSlug,
				"profiles_dir": "../..",
			},
		},
	}
	if err := writeYAML(filepath.Join(root, filepath.FromSlash(comp.OutputPath), "defs.yaml"), projectDef); err != nil {
		return err
	}

	for _, job := range comp.Jobs {
		attrs := map[string]any{
			"job_name":        job.Name,
			"asset_selection": job.AssetSelection,
			"description":     job.Description,
		}
		tags := map[string]string{}
		if job.ThreadCount > 0 {
			tags["dbt_threads"] = fmt.Sprintf("%d", job.ThreadCount)
		}
		if job.TargetName != "" {
			tags["dbt_target"] = job.TargetName
		}
		if job.Profile != "" {
			tags["dbt_profile"] = job.Profile
		}
		if len(tags) > 0 {
			attrs["tags"] = tags
		}
		def := componentDef{
			Type:       e.pkgName + ".components.job.DbtJobComponent",
			Attributes: attrs,
		}
		if err := writeYAML(filepath.Join(root, "defs", "jobs", job.Name, "defs.yaml"), def); err != nil {
			return err
		}
	}

	for _, sched := range comp.Schedules {
		def := componentDef{
			Type: e.pkgName + ".components.schedule.DbtScheduleComponent",
			Attributes: map[string]any{
				"schedule_name":   sched.Name,
				"cron_expression": sched.Cron,
				"job_name":        sched.JobName,
				"default_status":  "RUNNING",
			},
		}
		if err := writeYAML(filepath.Join(root, "defs", "schedules", sched.Name, "defs.yaml"), def); err != nil {
			return err
		}
	}

	for _, sensor := range comp.Sensors {
		def := componentDef{
			Type: e.pkgName + ".components.sensor.DbtSensorComponent",
			Attributes: map[string]any{
				"sensor_name":              sensor.Name,
				"sensor_type":              "run_status",
				"job_name":                 sensor.JobName,
				"monitored_job_name":       sensor.MonitoredJobName,
				"run_status":               sensor.RunStatus,
				"minimum_interval_seconds": 30,
				"default_status":           "RUNNING",
			},
		}
		if err := writeYAML(filepath.Join(root, "defs", "sensors", sensor.Name, "defs.yaml"), def); err != nil {
			return err
		}
	}
	return nil
}

// profilesDocument assembles the dbt profiles.yml mapping. yaml.v3 marshals
// map keys in sorted order, which keeps the document stable across runs.
func profilesDocument(profiles map[string]*migrate.GeneratedProfile) map[string]any {
	doc := make(map[string]any, len(profiles))
	for name, p := range profiles {
		outputs := make(map[string]any, len(p.Targets))
		for targetName, target := range p.Targets {
			outputs[targetName] = target
		}
		doc[name] = map[string]any{
			"target":  p.DefaultTarget,
			"outputs": outputs,
		}
	}
	return doc
}

func writeYAML(path string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
