package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/metaverify"
	main "github.com/fwojciec/metaverify/cmd/metaverify"
	mvhttp "github.com/fwojciec/metaverify/http"
	"github.com/fwojciec/metaverify/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMain returns a Main that does not read .env from the working directory.
func newMain() *main.Main {
	m := main.NewMain()
	m.EnvFile = ""
	return m
}

func targetServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Example Domain</title>
<meta name="description" content="An example">
<meta property="og:title" content="Example">
<meta name="generator" content="Hugo"></head></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	t.Run("help lists commands", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{"--help"}, stdout, stderr)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "serve")
		assert.Contains(t, stdout.String(), "inspect")
	})

	t.Run("no arguments is an error", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain().Run(context.Background(), nil, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
	})

	t.Run("rejects unknown extractor", func(t *testing.T) {
		t.Parallel()

		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{"--extractor", "xml", "inspect", "example.com"}, stdout, stderr)

		require.Error(t, err)
	})
}

func TestMain_Run_Inspect(t *testing.T) {
	t.Parallel()

	t.Run("prints a categorized report", func(t *testing.T) {
		t.Parallel()

		srv := targetServer(t)
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{"--log-level", "error", "inspect", srv.URL}, stdout, stderr)

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "Example Domain")
		assert.Contains(t, out, "An example")
		assert.Contains(t, out, "og:title")
		assert.Contains(t, out, `name="generator" content="Hugo"`)
		assert.Contains(t, out, "3 meta tags found")
		assert.Empty(t, stderr.String())
	})

	t.Run("prints the API body with --json", func(t *testing.T) {
		t.Parallel()

		srv := targetServer(t)
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{"--extractor", "goquery", "inspect", "--json", srv.URL}, stdout, stderr)

		require.NoError(t, err)
		var got metaverify.ExtractionResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
		require.NotNil(t, got.Title)
		assert.Equal(t, "Example Domain", *got.Title)
		assert.Len(t, got.Metadata, 3)
	})

	t.Run("reports fetch errors on stderr", func(t *testing.T) {
		t.Parallel()

		srv := targetServer(t)
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := newMain().Run(context.Background(), []string{"inspect", srv.URL + "/missing"}, stdout, stderr)

		require.Error(t, err)
		assert.Equal(t, metaverify.EHTTP, metaverify.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: Server returned error 404")
		assert.Empty(t, stdout.String())
	})

	t.Run("passes raw input to the inspector", func(t *testing.T) {
		t.Parallel()

		var got string
		m := newMain()
		m.Inspector = &mock.Inspector{
			InspectFn: func(_ context.Context, rawURL string) (*metaverify.Inspection, error) {
				got = rawURL
				return nil, metaverify.Errorf(metaverify.EINVALID, "Invalid URL format: %s", rawURL)
			},
		}
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"inspect", "notaurl"}, stdout, stderr)

		require.Error(t, err)
		assert.Equal(t, "notaurl", got)
		assert.Contains(t, stderr.String(), "error: Invalid URL format: notaurl")
	})
}

func TestMain_Run_Serve(t *testing.T) {
	t.Parallel()

	m := newMain()
	m.Inspector = &mock.Inspector{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := m.Run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, stdout, stderr)

	require.NoError(t, err)
	assert.Contains(t, stderr.String(), `"msg":"server listening"`)
}

func TestCLI_Config(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "metaverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout: 12s
user-agent: MyBot/1.0
log_level: debug
serve:
  addr: ":8080"
  rate_limit: 2
`), 0o600))

	cli := &main.CLI{}
	parser, err := kong.New(cli,
		kong.Configuration(main.YAMLLoader),
		kong.Vars{"user_agent": mvhttp.DefaultUserAgent},
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--config", path, "serve", "--rate-burst", "3"})
	require.NoError(t, err)

	assert.Equal(t, 12*time.Second, cli.Timeout)
	assert.Equal(t, "MyBot/1.0", cli.UserAgent)
	assert.Equal(t, "debug", cli.LogLevel)
	assert.Equal(t, ":8080", cli.Serve.Addr)
	assert.InDelta(t, 2.0, cli.Serve.RateLimit, 0.001)
	assert.Equal(t, 3, cli.Serve.RateBurst)
	assert.Equal(t, "html", cli.Extractor)
}

func TestCLI_Defaults(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	parser, err := kong.New(cli,
		kong.Vars{"user_agent": mvhttp.DefaultUserAgent},
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"serve"})
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cli.Timeout)
	assert.Equal(t, mvhttp.DefaultUserAgent, cli.UserAgent)
	assert.Equal(t, int64(mvhttp.DefaultMaxBodySize), cli.MaxBody)
	assert.Equal(t, ":5000", cli.Serve.Addr)
	assert.InDelta(t, 5.0, cli.Serve.RateLimit, 0.001)
	assert.False(t, cli.Serve.TrustProxy)
}

// Environment tests mutate the process and cannot run in parallel.

func TestCLI_Env(t *testing.T) {
	t.Setenv("METAVERIFY_TIMEOUT", "11s")

	cli := &main.CLI{}
	parser, err := kong.New(cli,
		kong.DefaultEnvars("METAVERIFY"),
		kong.Vars{"user_agent": mvhttp.DefaultUserAgent},
		kong.Exit(func(int) {}),
	)
	require.NoError(t, err)

	_, err = parser.Parse([]string{"inspect", "example.com"})
	require.NoError(t, err)

	assert.Equal(t, 11*time.Second, cli.Timeout)
}

func TestMain_Run_LoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("METAVERIFY_EXTRACTOR=xml\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("METAVERIFY_EXTRACTOR") })

	m := main.NewMain()
	m.EnvFile = path
	m.Inspector = &mock.Inspector{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"inspect", "example.com"}, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestMain_Run_MissingEnvFileIsIgnored(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.EnvFile = filepath.Join(t.TempDir(), "absent.env")
	m.Inspector = &mock.Inspector{
		InspectFn: func(_ context.Context, rawURL string) (*metaverify.Inspection, error) {
			return &metaverify.Inspection{URL: "https://" + rawURL, Result: &metaverify.ExtractionResult{}}, nil
		},
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"inspect", "example.com"}, stdout, stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "URL: https://example.com")
}

func TestClampTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, main.MinFetchTimeout, main.ClampTimeout(time.Second))
	assert.Equal(t, 12*time.Second, main.ClampTimeout(12*time.Second))
	assert.Equal(t, main.MaxFetchTimeout, main.ClampTimeout(time.Minute))
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	level, err := main.ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())

	_, err = main.ParseLogLevel("loud")
	assert.Error(t, err)
}
