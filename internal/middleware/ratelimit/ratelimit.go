// Package ratelimit limits requests per client IP with a fixed one-minute
// window.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

const window = time.Minute

type Config struct {
	RequestsPerMinute int
	// CleanupInterval is how often idle clients are forgotten.
	CleanupInterval time.Duration
	// IdleTTL is how long a client may stay silent before it is dropped.
	IdleTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           10 * time.Minute,
	}
}

// Limiter counts requests per client in fixed windows. Steady traffic does
// not extend a window.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	clients  map[string]*counter
	rejected int64

	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	start    time.Time
	lastSeen time.Time
	count    int
}

// NewLimiter starts a limiter and its cleanup goroutine. Call Stop to end
// it. Zero fields in cfg take their defaults.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}

	rl := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		clients: make(map[string]*counter),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow records a request from clientIP and reports whether it fits in the
// client's current window.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.start) >= window {
		rl.clients[clientIP] = &counter{start: now, lastSeen: now, count: 1}
		return true
	}

	c.count++
	c.lastSeen = now
	if c.count > rl.cfg.RequestsPerMinute {
		rl.rejected++
		return false
	}
	return true
}

func (rl *Limiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.IdleTTL)
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Rejected is the number of refused requests since start.
func (rl *Limiter) Rejected() int64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rejected
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware rejects requests over the limit with 429 and Retry-After.
// onLimit renders the rejection; nil sends a plain-text body.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.Allow(extractIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", "60")
			onLimit(w, r)
		})
	}
}
