package metaverify

import (
	"context"
	"strings"
)

// FetchResult holds a fetched document. It only lives for the duration of a
// single inspection.
type FetchResult struct {
	// URL is the final address after redirects.
	URL string

	StatusCode  int
	ContentType string
	Body        string
}

// IsHTML reports whether the declared content type is text/html.
func (r *FetchResult) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}

// Fetcher retrieves a document over the network.
type Fetcher interface {
	// Fetch issues a single GET request against url, following redirects.
	// A non-2xx response is reported as EHTTP; timeouts as ETIMEOUT;
	// transport failures as ECONNECTION or EUNEXPECTED.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
