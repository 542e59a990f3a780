package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dagshift/dagshift/internal/config"
	"github.com/dagshift/dagshift/internal/dbtcloud"
	"github.com/dagshift/dagshift/internal/emit"
	"github.com/dagshift/dagshift/internal/migrate"
	"github.com/dagshift/dagshift/internal/model"
	"github.com/dagshift/dagshift/internal/scaffold"
	"github.com/dagshift/dagshift/pkg/bundle"
)

// run executes the full migration pipeline: fetch, normalize, map, scaffold,
// emit, and optionally publish. Nothing is written to the output directory
// unless every stage succeeds.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, publish bool) error {
	client := dbtcloud.NewClient(&dbtcloud.ClientConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		AccountID:   cfg.AccountID,
		Timeout:     cfg.RequestTimeout,
		MaxAttempts: cfg.MaxAttempts,
		PageSize:    cfg.PageSize,
	})

	log.Info().Int64("account", cfg.AccountID).Str("base_url", cfg.BaseURL).Msg("fetching account")
	raw, err := client.FetchAccount(ctx)
	if err != nil {
		return err
	}

	snap, err := model.Normalize(raw)
	if err != nil {
		return err
	}
	log.Info().
		Int("projects", len(snap.Projects)).
		Int("environments", len(snap.Environments)).
		Int("jobs", len(snap.Jobs)).
		Msg("account normalized")

	layout := migrate.PlanLayout(snap.Projects)
	profiles, profileWarnings := migrate.GenerateProfiles(snap.Environments)

	mapped, err := migrate.MapJobs(snap, profiles, layout)
	if err != nil {
		return err
	}
	warnings := append(profileWarnings, mapped.Warnings...)
	for _, w := range warnings {
		log.Warn().Str("code", w.Code).Str("entity", w.Entity).Msg(w.Message)
	}

	if cfg.SkipScaffold {
		log.Info().Msg("scaffold step skipped")
	} else {
		sc := scaffold.NewScaffolder(cfg.ScaffoldTimeout, log)
		if err := sc.Run(ctx, cfg.OutputDir); err != nil {
			if errors.Is(err, scaffold.ErrCLINotFound) {
				log.Warn().Msg("dagster CLI not found; writing artifacts without a project skeleton")
			} else {
				return err
			}
		}
	}

	summary := buildSummary(cfg.AccountID, snap, profiles, mapped, warnings)
	envVars := migrate.ExtractEnvVars(profiles, snap.Jobs)

	emitter := emit.NewEmitter(cfg.OutputDir)
	if err := emitter.Emit(&emit.Artifacts{
		Components: mapped.Components,
		Profiles:   profiles,
		EnvVars:    envVars,
		Summary:    summary,
	}); err != nil {
		return err
	}
	log.Info().Str("dir", cfg.OutputDir).Msg("artifacts written")

	if publish {
		if !cfg.Publish.Enabled() {
			return fmt.Errorf("--publish requires DAGSHIFT_PUBLISH_ENDPOINT, DAGSHIFT_PUBLISH_ACCESS_KEY, and DAGSHIFT_PUBLISH_SECRET_KEY")
		}
		store, err := bundle.NewS3Store(bundle.S3Config{
			Endpoint:  cfg.Publish.Endpoint,
			AccessKey: cfg.Publish.AccessKey,
			SecretKey: cfg.Publish.SecretKey,
			UseSSL:    cfg.Publish.UseSSL,
		})
		if err != nil {
			return err
		}
		publisher := bundle.NewPublisher(store, cfg.Publish.Bucket, cfg.Publish.Prefix)
		uri, err := publisher.Publish(ctx, cfg.OutputDir, fmt.Sprintf("account-%d", cfg.AccountID))
		if err != nil {
			return err
		}
		log.Info().Str("uri", uri).Msg("bundle published")
	}

	log.Info().
		Int("jobs", summary.JobCount).
		Int("schedules", summary.ScheduleCount).
		Int("sensors", summary.SensorCount).
		Int("warnings", len(warnings)).
		Msg("migration complete")
	return nil
}

func buildSummary(accountID int64, snap *model.AccountSnapshot, profiles map[string]*migrate.GeneratedProfile, mapped *migrate.MapResult, warnings []migrate.Warning) *emit.Summary {
	s := &emit.Summary{
		AccountID:        accountID,
		ProjectCount:     len(snap.Projects),
		EnvironmentCount: len(snap.Environments),
		ProfileCount:     len(profiles),
		Adapters:         migrate.DetectAdapters(profiles),
		SkippedSchedules: mapped.SkippedSchedules,
		Warnings:         warnings,
		Components:       mapped.Components,
	}
	for _, comp := range mapped.Components {
		s.JobCount += len(comp.Jobs)
		s.ScheduleCount += len(comp.Schedules)
		s.SensorCount += len(comp.Sensors)
	}
	return s
}

// explain maps pipeline errors onto actionable operator messages.
func explain(err error) string {
	var authErr *dbtcloud.AuthenticationError
	if errors.As(err, &authErr) {
		return fmt.Sprintf("%v\nCheck that the API key is valid and has read access to the account.", err)
	}
	var retrErr *dbtcloud.RetrievalError
	if errors.As(err, &retrErr) {
		return fmt.Sprintf("%v\nThe dbt Cloud API did not respond successfully; verify the base URL and account id, then retry.", err)
	}
	var schemaErr *model.SchemaError
	if errors.As(err, &schemaErr) {
		return fmt.Sprintf("%v\nThe API returned a payload missing required fields; re-run with --verbose and report the resource.", err)
	}
	var danglingErr *migrate.DanglingReferenceError
	if errors.As(err, &danglingErr) {
		return fmt.Sprintf("%v\nThe job references an environment the API did not return; fix or remove the job in dbt Cloud and re-run.", err)
	}
	var cycleErr *migrate.TriggerCycleError
	if errors.As(err, &cycleErr) {
		return fmt.Sprintf("%v\nBreak the completion-trigger cycle between these jobs in dbt Cloud and re-run.", err)
	}
	return err.Error()
}
