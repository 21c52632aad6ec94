package mock

import (
	"context"

	"github.com/fwojciec/metaverify"
)

var _ metaverify.ReportStore = (*ReportStore)(nil)

// ReportStore is a mock implementation of metaverify.ReportStore.
type ReportStore struct {
	SaveFn func(ctx context.Context, inspection *metaverify.Inspection) (string, error)
}

func (s *ReportStore) Save(ctx context.Context, inspection *metaverify.Inspection) (string, error) {
	return s.SaveFn(ctx, inspection)
}
