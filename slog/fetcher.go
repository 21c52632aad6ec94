// Package slog provides log/slog decorators for metaverify services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/metaverify"
)

// Ensure LoggingFetcher implements metaverify.Fetcher.
var _ metaverify.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   metaverify.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next metaverify.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (result *metaverify.FetchResult, err error) {
	defer func(begin time.Time) {
		if err != nil {
			f.logger.Error("fetch",
				"url", url,
				"code", metaverify.ErrorCode(err),
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		f.logger.Info("fetch",
			"url", url,
			"final_url", result.URL,
			"status", result.StatusCode,
			"content_type", result.ContentType,
			"bytes", len(result.Body),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}
