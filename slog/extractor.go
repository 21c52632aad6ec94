package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/metaverify"
)

// Ensure LoggingExtractor implements metaverify.Extractor.
var _ metaverify.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging.
type LoggingExtractor struct {
	next   metaverify.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next metaverify.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs what was found.
func (e *LoggingExtractor) Extract(body string) (result *metaverify.ExtractionResult) {
	defer func(begin time.Time) {
		e.logger.Debug("extract",
			"bytes", len(body),
			"title", result.Title != nil,
			"meta_tags", len(result.Metadata),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return e.next.Extract(body)
}
