package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its limiter before pruning.
const visitorTTL = 10 * time.Minute

// pruneThreshold bounds the visitor map before a sweep runs.
const pruneThreshold = 1024

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// rateLimiter throttles JSON-RPC clients per source address so one wallet
// cannot monopolise the endpoint.
type rateLimiter struct {
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	visitors map[string]*visitor
	nowFn    func() time.Time
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	if perSecond <= 0 {
		perSecond = 20
	}
	if burst <= 0 {
		burst = 40
	}
	return &rateLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		visitors:  make(map[string]*visitor),
		nowFn:     time.Now,
	}
}

func (l *rateLimiter) allow(r *http.Request) bool {
	id := clientID(r)
	now := l.nowFn()

	l.mu.Lock()
	v, ok := l.visitors[id]
	if !ok {
		if len(l.visitors) >= pruneThreshold {
			l.prune(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[id] = v
	}
	v.seen = now
	l.mu.Unlock()

	return v.limiter.Allow()
}

// prune drops limiters idle past the TTL. Caller holds the mutex.
func (l *rateLimiter) prune(now time.Time) {
	cutoff := now.Add(-visitorTTL)
	for id, v := range l.visitors {
		if v.seen.Before(cutoff) {
			delete(l.visitors, id)
		}
	}
}

// clientID identifies the caller by forwarded address when present, else by
// the connection's remote host.
func clientID(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
