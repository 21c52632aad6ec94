package slog_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fwojciec/metaverify"
	"github.com/fwojciec/metaverify/mock"
	mvslog "github.com/fwojciec/metaverify/slog"
	"github.com/stretchr/testify/assert"
)

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs meta tag count at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		want := &metaverify.ExtractionResult{
			Metadata: []metaverify.MetaTag{
				{Attributes: metaverify.MetaAttributeSet{{Name: "charset", Value: "utf-8"}}},
			},
		}
		inner := &mock.Extractor{
			ExtractFn: func(string) *metaverify.ExtractionResult { return want },
		}

		got := mvslog.NewLoggingExtractor(inner, logger).Extract(`<meta charset="utf-8">`)

		assert.Same(t, want, got)
		output := buf.String()
		assert.Contains(t, output, "extract")
		assert.Contains(t, output, "meta_tags=1")
		assert.Contains(t, output, "title=false")
		assert.Contains(t, output, "bytes=22")
	})

	t.Run("stays quiet above debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(string) *metaverify.ExtractionResult { return &metaverify.ExtractionResult{} },
		}

		mvslog.NewLoggingExtractor(inner, logger).Extract("")

		assert.Empty(t, buf.String())
	})
}
