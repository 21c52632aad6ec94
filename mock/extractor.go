package mock

import "github.com/fwojciec/metaverify"

var _ metaverify.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of metaverify.Extractor.
type Extractor struct {
	ExtractFn func(body string) *metaverify.ExtractionResult
}

func (e *Extractor) Extract(body string) *metaverify.ExtractionResult {
	return e.ExtractFn(body)
}
