package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dagshift/dagshift/internal/config"
)

var (
	flagAPIKey       string
	flagAccountID    int64
	flagBaseURL      string
	flagOutputDir    string
	flagSkipScaffold bool
	flagPublish      bool
	flagVerbose      bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "dbt Cloud API key (defaults to DBT_CLOUD_API_KEY)")
	rootCmd.PersistentFlags().Int64Var(&flagAccountID, "account-id", 0, "dbt Cloud account id (defaults to DBT_CLOUD_ACCOUNT_ID)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "dbt Cloud API base URL for single-tenant hosts")
	rootCmd.PersistentFlags().StringVarP(&flagOutputDir, "output-dir", "o", "", "directory the Dagster project is generated into")
	rootCmd.PersistentFlags().BoolVar(&flagSkipScaffold, "skip-scaffold", false, "skip running the Dagster CLI scaffold step")
	rootCmd.PersistentFlags().BoolVar(&flagPublish, "publish", false, "publish the generated artifacts as a bundle (requires DAGSHIFT_PUBLISH_* settings)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "dagshift",
	Short: "Migrate dbt Cloud accounts to Dagster projects",
	Long: `dagshift reads a dbt Cloud account through its REST API and generates a
Dagster project: component definitions for every dbt project, jobs with their
schedules and cross-job sensors, a profiles.yml with a local duckdb target,
and a migration summary describing the manual follow-ups.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dagshift version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dagshift", version)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Fetch the account and generate the Dagster project",
	RunE: func(cmd *cobra.Command, args []string) error {
		// CLI parsing worked; runtime errors should not print usage.
		cmd.SilenceUsage = true

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := newLogger(flagVerbose)
		return run(cmd.Context(), cfg, log, flagPublish)
	},
}

// version is stamped at release time via -ldflags.
var version = "dev"

func applyFlags(cfg *config.Config) {
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagAccountID != 0 {
		cfg.AccountID = flagAccountID
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagSkipScaffold {
		cfg.SkipScaffold = true
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", explain(err))
		os.Exit(1)
	}
}
