package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleTTL is how long an unused client limiter is kept around.
const clientIdleTTL = 10 * time.Minute

// DefaultMaxClients bounds how many client buckets are tracked at once.
const DefaultMaxClients = 10000

// ClientLimiter provides per-client rate limiting of inbound requests using
// token buckets. Each client key (usually the remote IP) gets its own bucket.
// Outbound fetches are not limited.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	rps     float64
	burst   int
	max     int
	now     func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientLimiter creates a ClientLimiter allowing rps requests per second
// per client with the given burst.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		clients: make(map[string]*clientBucket),
		rps:     rps,
		burst:   burst,
		max:     DefaultMaxClients,
		now:     time.Now,
	}
}

// Allow reports whether a request from client may proceed now.
func (l *ClientLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[client]
	if !ok {
		l.sweep(now)
		if len(l.clients) >= l.max {
			l.evictOldest()
		}
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.clients[client] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets that have been idle longer than clientIdleTTL.
func (l *ClientLimiter) sweep(now time.Time) {
	for k, b := range l.clients {
		if now.Sub(b.lastSeen) > clientIdleTTL {
			delete(l.clients, k)
		}
	}
}

// evictOldest drops the least recently seen bucket.
func (l *ClientLimiter) evictOldest() {
	var (
		oldest string
		seen   time.Time
	)
	for k, b := range l.clients {
		if oldest == "" || b.lastSeen.Before(seen) {
			oldest, seen = k, b.lastSeen
		}
	}
	delete(l.clients, oldest)
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
