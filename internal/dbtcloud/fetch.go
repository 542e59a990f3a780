package dbtcloud

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchAccount retrieves the account's projects, environments, and jobs.
// The three collections have no inter-dependencies until normalization, so
// they are fetched concurrently; the first fatal error cancels the siblings
// and partial results are discarded.
func (c *Client) FetchAccount(ctx context.Context) (*RawAccount, error) {
	raw := &RawAccount{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		projects, err := listPages[RawProject](gctx, c, "projects", "projects/")
		if err != nil {
			return err
		}
		raw.Projects = projects
		return nil
	})

	g.Go(func() error {
		environments, err := listPages[RawEnvironment](gctx, c, "environments", "environments/")
		if err != nil {
			return err
		}
		raw.Environments = environments
		return nil
	})

	g.Go(func() error {
		jobs, err := listPages[RawJob](gctx, c, "jobs", "jobs/")
		if err != nil {
			return err
		}
		raw.Jobs = jobs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}
