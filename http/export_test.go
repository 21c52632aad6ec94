package http

import (
	"net/http"
	"time"
)

// SetNow replaces the limiter clock.
func (l *ClientLimiter) SetNow(fn func() time.Time) {
	l.now = fn
}

// SetMaxClients replaces the bound on tracked clients.
func (l *ClientLimiter) SetMaxClients(n int) {
	l.max = n
}

// RecoverPanics exposes the panic middleware.
func (s *Server) RecoverPanics(next http.Handler) http.Handler {
	return s.recoverPanics(next)
}
