// Package dataset talks to the artifacts the offline pipeline produced: the
// manifest, the agency lookup document, range-partitioned publisher shards,
// and the raster images (tiles and plots). Fetch failures are converted to
// state flags at this boundary — a missing tile means "no data here", and
// render code never sees an error.
package dataset

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client fetches pipeline artifacts below a base URL. On js/wasm the
// standard HTTP client rides the browser fetch API, so the same code path
// serves the browser and tests.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client rooted at base.
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{},
	}
}

// ErrNotFound marks a resource the server does not have. For tiles and
// plots this is an expected outcome, not a fault.
var ErrNotFound = fmt.Errorf("resource not found")

// Get fetches one artifact by path relative to the base URL.
func (c *Client) Get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.base + "/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", path, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return data, nil
}
