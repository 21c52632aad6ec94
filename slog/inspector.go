package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/metaverify"
)

var _ metaverify.Inspector = (*LoggingInspector)(nil)

// LoggingInspector wraps an Inspector with logging.
type LoggingInspector struct {
	next   metaverify.Inspector
	logger *slog.Logger
}

// NewLoggingInspector creates a new LoggingInspector.
func NewLoggingInspector(next metaverify.Inspector, logger *slog.Logger) *LoggingInspector {
	return &LoggingInspector{next: next, logger: logger}
}

// Inspect delegates to the wrapped inspector and logs the outcome.
func (i *LoggingInspector) Inspect(ctx context.Context, rawURL string) (inspection *metaverify.Inspection, err error) {
	defer func(begin time.Time) {
		if err != nil {
			i.logger.Warn("inspect",
				"input", rawURL,
				"code", metaverify.ErrorCode(err),
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		i.logger.Info("inspect",
			"input", rawURL,
			"url", inspection.URL,
			"title", inspection.Result.Title != nil,
			"meta_tags", len(inspection.Result.Metadata),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return i.next.Inspect(ctx, rawURL)
}
