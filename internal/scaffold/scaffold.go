// Package scaffold shells out to the Dagster CLI to create the project
// skeleton the generated artifacts are installed into. The CLI is optional;
// callers decide whether a missing scaffold is fatal.
package scaffold

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Scaffolder locates and runs the project scaffolding CLI.
type Scaffolder struct {
	timeout time.Duration
	log     zerolog.Logger
}

func NewScaffolder(timeout time.Duration, log zerolog.Logger) *Scaffolder {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scaffolder{timeout: timeout, log: log}
}

// ErrCLINotFound reports that no scaffolding CLI is installed.
var ErrCLINotFound = fmt.Errorf("dagster CLI not found: install with `pip install dagster` or `uvx create-dagster@latest`")

// detect returns the scaffold command to use, preferring create-dagster.
func (s *Scaffolder) detect() (string, error) {
	for _, candidate := range []string{"create-dagster", "dg"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrCLINotFound
}

// Run scaffolds a Dagster project at outputDir. An already scaffolded
// directory (pyproject.toml present) is left alone so reruns keep operator
// edits.
func (s *Scaffolder) Run(ctx context.Context, outputDir string) error {
	if _, err := os.Stat(filepath.Join(outputDir, "pyproject.toml")); err == nil {
		s.log.Debug().Str("dir", outputDir).Msg("project already scaffolded, skipping")
		return nil
	}

	cli, err := s.detect()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	parent := filepath.Dir(outputDir)
	name := filepath.Base(outputDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create scaffold parent: %w", err)
	}

	var cmd *exec.Cmd
	switch cli {
	case "create-dagster":
		cmd = exec.CommandContext(ctx, cli, "project", name, "--no-uv-sync")
	default:
		cmd = exec.CommandContext(ctx, cli, "init", "--project-name", name)
	}
	cmd.Dir = parent

	s.log.Info().Str("cli", cli).Str("dir", outputDir).Msg("scaffolding project")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w: %s", cli, err, truncate(string(out), 512))
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
