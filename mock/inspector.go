package mock

import (
	"context"

	"github.com/fwojciec/metaverify"
)

var _ metaverify.Inspector = (*Inspector)(nil)

// Inspector is a mock implementation of metaverify.Inspector.
type Inspector struct {
	InspectFn func(ctx context.Context, rawURL string) (*metaverify.Inspection, error)
}

func (i *Inspector) Inspect(ctx context.Context, rawURL string) (*metaverify.Inspection, error) {
	return i.InspectFn(ctx, rawURL)
}
