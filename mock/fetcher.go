package mock

import (
	"context"

	"github.com/fwojciec/metaverify"
)

var _ metaverify.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of metaverify.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*metaverify.FetchResult, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*metaverify.FetchResult, error) {
	return f.FetchFn(ctx, url)
}
