package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached listing response.
type Key struct {
	// Endpoint is the request path (e.g. "/wp-json/wp/v2/posts").
	Endpoint string

	// QueryParams are the request's query arguments.
	QueryParams url.Values
}

// String renders a deterministic cache key.
// Format: wp:<endpoint>:<query1>=<val1>:<query2>=<val2>
func (k Key) String() string {
	parts := []string{"wp"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		names := make([]string, 0, len(k.QueryParams))
		for name := range k.QueryParams {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.QueryParams.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
