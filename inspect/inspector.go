// Package inspect composes URL normalization, fetching and extraction into
// a single metaverify.Inspector.
package inspect

import (
	"context"
	"log/slog"

	"github.com/fwojciec/metaverify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/fwojciec/metaverify/inspect"

// Ensure Inspector implements metaverify.Inspector at compile time.
var _ metaverify.Inspector = (*Inspector)(nil)

// Inspector runs one normalize, fetch and extract pass per call. It holds no
// per-request state and is safe for concurrent use.
type Inspector struct {
	fetcher   metaverify.Fetcher
	extractor metaverify.Extractor
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger used for soft warnings such as non-HTML
// content types. Defaults to discarding output.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithTracerProvider sets the provider for inspection spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(i *Inspector) {
		i.tracer = tp.Tracer(tracerName)
	}
}

// NewInspector creates a new Inspector.
func NewInspector(fetcher metaverify.Fetcher, extractor metaverify.Extractor, opts ...Option) *Inspector {
	i := &Inspector{
		fetcher:   fetcher,
		extractor: extractor,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect normalizes rawURL, fetches it and extracts the title and meta tags.
func (i *Inspector) Inspect(ctx context.Context, rawURL string) (_ *metaverify.Inspection, err error) {
	ctx, span := i.tracer.Start(ctx, "Inspect", trace.WithAttributes(attribute.String("metaverify.input", rawURL)))
	defer func() {
		if err != nil {
			span.SetAttributes(attribute.String("metaverify.error_code", metaverify.ErrorCode(err)))
			span.SetStatus(codes.Error, metaverify.ErrorMessage(err))
		}
		span.End()
	}()

	u, err := metaverify.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	res, err := i.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("url.full", res.URL),
		attribute.Int("http.response.status_code", res.StatusCode),
	)

	if !res.IsHTML() {
		i.logger.Warn("non-HTML content type",
			"url", u,
			"content_type", res.ContentType,
		)
	}

	return &metaverify.Inspection{
		RequestedURL: u,
		URL:          res.URL,
		ContentType:  res.ContentType,
		Result:       i.extractor.Extract(res.Body),
	}, nil
}
