package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/metaverify"
	"github.com/fwojciec/metaverify/fs"
	"github.com/fwojciec/metaverify/goquery"
	"github.com/fwojciec/metaverify/html"
	mvhttp "github.com/fwojciec/metaverify/http"
	"github.com/fwojciec/metaverify/inspect"
	mvslog "github.com/fwojciec/metaverify/slog"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// EnvFile is loaded into the environment before flags are parsed.
	// Missing files are ignored. Set to "" to skip.
	EnvFile string

	// Inspector replaces the default fetch and extract pipeline when set.
	// Used for end-to-end testing.
	Inspector metaverify.Inspector
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		EnvFile: ".env",
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if m.EnvFile != "" {
		if err := godotenv.Load(m.EnvFile); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", m.EnvFile, err)
		}
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("metaverify"),
		kong.Description("Fetch web pages and report their title and meta tags"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.DefaultEnvars("METAVERIFY"),
		kong.Configuration(YAMLLoader),
		kong.Vars{"user_agent": mvhttp.DefaultUserAgent},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'metaverify --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level, err := ParseLogLevel(cli.LogLevel)
	if err != nil {
		return err
	}
	if strings.HasPrefix(kongCtx.Command(), "serve") {
		deps.Logger = slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))
	} else {
		deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	}

	shutdown, err := setupTracing(ctx, cli.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			deps.Logger.Warn("tracing shutdown", "err", err)
		}
	}()

	deps.Inspector = m.Inspector
	if deps.Inspector == nil {
		deps.Inspector, err = newInspector(cli, deps.Logger)
		if err != nil {
			return err
		}
	}

	if cli.Inspect.Save != "" {
		deps.Reports = fs.NewReportStore(cli.Inspect.Save)
	}

	return kongCtx.Run(deps)
}

// newInspector wires the fetch and extract pipeline from the global flags.
func newInspector(cli *CLI, logger *slog.Logger) (metaverify.Inspector, error) {
	var extractor metaverify.Extractor
	switch cli.Extractor {
	case "", "html":
		extractor = html.NewExtractor()
	case "goquery":
		extractor = goquery.NewExtractor()
	default:
		return nil, fmt.Errorf("unknown extractor %q", cli.Extractor)
	}

	fetcher := mvhttp.NewFetcher(
		mvhttp.WithTimeout(ClampTimeout(cli.Timeout)),
		mvhttp.WithUserAgent(cli.UserAgent),
		mvhttp.WithMaxBodySize(cli.MaxBody),
		mvhttp.WithTransport(otelhttp.NewTransport(http.DefaultTransport)),
	)

	inspector := inspect.NewInspector(
		mvslog.NewLoggingFetcher(fetcher, logger),
		mvslog.NewLoggingExtractor(extractor, logger),
		inspect.WithLogger(logger),
	)
	return mvslog.NewLoggingInspector(inspector, logger), nil
}
