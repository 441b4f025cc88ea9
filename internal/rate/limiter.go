package rate

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	last    time.Time
}

// LimiterMap provides per-client rate limiting with TTL eviction. Clients are
// identified by ClientKey.
type LimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rpm      int
	burst    int
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewLimiterMap creates a LimiterMap with cleanup goroutine.
func NewLimiterMap(rpm, burst int, ttl time.Duration) *LimiterMap {
	if rpm <= 0 {
		rpm = 1
	}
	if burst <= 0 {
		burst = 1
	}
	lm := &LimiterMap{
		limiters: make(map[string]*entry),
		rpm:      rpm,
		burst:    burst,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go lm.reaper()
	return lm
}

func (l *LimiterMap) reaper() {
	defer close(l.done)
	t := time.NewTicker(l.ttl)
	defer t.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case now := <-t.C:
			l.mu.Lock()
			for key, e := range l.limiters {
				if now.Sub(e.last) > l.ttl {
					delete(l.limiters, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop stops the cleanup goroutine and waits for it to exit. It is safe to
// call more than once.
func (l *LimiterMap) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.done
}

func (l *LimiterMap) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.limiters[key]; ok {
		e.last = time.Now()
		return e.limiter
	}
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.rpm)), l.burst)
	l.limiters[key] = &entry{limiter: lim, last: time.Now()}
	return lim
}

// Allow reports whether a request from the client identified by key may proceed.
func (l *LimiterMap) Allow(key string) bool {
	return l.get(key).Allow()
}

// Len returns the number of tracked clients.
func (l *LimiterMap) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// ClientKey identifies the caller: the API key hash prefix when the request
// is authenticated, the client IP otherwise.
func ClientKey(r *http.Request, apiKeyHash string) string {
	if apiKeyHash != "" {
		return "key:" + apiKeyHash
	}
	return "ip:" + IPFromRequest(r)
}

// IPFromRequest extracts the client IP from the request.
func IPFromRequest(r *http.Request) string {
	// first X-Forwarded-For hop wins
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
