package main

import (
	"os"
	"os/signal"
	"syscall"

	mvhttp "github.com/fwojciec/metaverify/http"
)

// Run executes the serve command. It blocks until the context is canceled
// or the process receives SIGINT or SIGTERM.
func (c *ServeCmd) Run(deps *Dependencies) error {
	ctx, stop := signal.NotifyContext(deps.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []mvhttp.ServerOption{
		mvhttp.WithLogger(deps.Logger),
		mvhttp.WithRateLimit(c.RateLimit, c.RateBurst),
	}
	if c.TrustProxy {
		opts = append(opts, mvhttp.WithTrustedProxy())
	}
	s := mvhttp.NewServer(deps.Inspector, opts...)
	s.Addr = c.Addr
	if err := s.Open(); err != nil {
		return err
	}

	return s.Serve(ctx)
}

