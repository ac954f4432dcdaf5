package pypi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/importaudit/pkg/cache"
	"github.com/matzehuels/importaudit/pkg/integrations"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// Client provides access to the PyPI JSON API.
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client. Responses are cached in backend for ttl;
// pass a nil backend to disable caching. An empty baseURL uses
// [DefaultBaseURL], which also accepts mirrors serving the same JSON API.
func NewClient(backend cache.Cache, ttl time.Duration, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", ttl, integrations.DefaultHeaders()),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type existence struct {
	Found bool `json:"found"`
}

// Exists reports whether a distribution named name is published on the
// index. Both positive and negative answers are cached.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	pkg := integrations.NormalizePkgName(name)
	if pkg == "" {
		return false, nil
	}

	var e existence
	err := c.Cached(ctx, "exists:"+pkg, false, &e, func() error {
		found, err := c.Probe(ctx, c.packageURL(pkg))
		e.Found = found
		return err
	})
	if err != nil {
		return false, fmt.Errorf("pypi lookup %s: %w", pkg, err)
	}
	return e.Found, nil
}

func (c *Client) packageURL(pkg string) string {
	return fmt.Sprintf("%s/%s/json", c.baseURL, integrations.URLEncode(pkg))
}
