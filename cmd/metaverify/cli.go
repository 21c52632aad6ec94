package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/metaverify"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Inspector metaverify.Inspector
	Reports   metaverify.ReportStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config       kong.ConfigFlag `help:"YAML configuration file"`
	Timeout      time.Duration   `default:"15s" help:"Fetch timeout, clamped to 10s-15s"`
	UserAgent    string          `name:"user-agent" default:"${user_agent}" help:"User-Agent sent with fetches"`
	Extractor    string          `enum:"html,goquery" default:"html" help:"Meta tag extractor (html, goquery)"`
	MaxBody      int64           `name:"max-body" default:"10485760" help:"Maximum response bytes parsed per page"`
	LogLevel     string          `name:"log-level" enum:"debug,info,warn,error" default:"info" help:"Log level (debug, info, warn, error)"`
	OTLPEndpoint string          `name:"otlp-endpoint" help:"OTLP/HTTP trace collector, host:port or URL. Empty disables tracing"`

	Serve   ServeCmd   `cmd:"" help:"Serve the verifier page and the /extract API"`
	Inspect InspectCmd `cmd:"" help:"Print the title and meta tags of a page"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr       string  `default:":5000" help:"Listen address"`
	RateLimit  float64 `name:"rate-limit" default:"5" help:"Requests per second allowed per client on /extract. 0 disables"`
	RateBurst  int     `name:"rate-burst" default:"10" help:"Burst allowed per client on /extract"`
	TrustProxy bool    `name:"trust-proxy" help:"Take client addresses from X-Forwarded-For (only behind a reverse proxy)"`
}

// InspectCmd is the "inspect" subcommand.
type InspectCmd struct {
	URL  string `arg:"" help:"Page address, e.g. example.com"`
	JSON bool   `help:"Print the /extract JSON body instead of a report"`
	Save string `type:"path" help:"Also write a YAML report into this directory"`
}
