package dbtcloud

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// =============================================================================
// OFFSET PAGINATION
// dbt Cloud list endpoints page with offset/limit. An empty page is the
// termination signal; the total count in the envelope is advisory only.
// =============================================================================

// listPages fetches every page of a list endpoint and returns the raw records.
func listPages[T any](ctx context.Context, c *Client, resource, path string) ([]T, error) {
	var out []T
	offset := 0

	for {
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(c.config.PageSize))

		data, err := c.get(ctx, resource, path, query)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, &RetrievalError{Resource: resource, Attempts: 1, Err: err}
		}
		if len(page) == 0 {
			return out, nil
		}

		out = append(out, page...)
		offset += len(page)
	}
}
