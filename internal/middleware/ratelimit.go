package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/vitalcoach-backend/pkg/clientip"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// KeyedLimiter holds one token bucket per key (client IP or user id). Idle
// buckets are dropped by a background sweep.
type KeyedLimiter struct {
	limit rate.Limit
	burst int

	mu         sync.Mutex
	entries    map[string]*limiterEntry
	cleanupRun bool
}

func NewKeyedLimiter(limit rate.Limit, burst int) *KeyedLimiter {
	return &KeyedLimiter{limit: limit, burst: burst, entries: make(map[string]*limiterEntry)}
}

// NewPerMinuteLimiter allows n events per minute per key, all usable at once.
func NewPerMinuteLimiter(n int) *KeyedLimiter {
	if n <= 0 {
		n = 1
	}
	return NewKeyedLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startCleanupOnce()

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter.Allow()
}

func (l *KeyedLimiter) Burst() int { return l.burst }

func (l *KeyedLimiter) startCleanupOnce() {
	if l.cleanupRun {
		return
	}
	l.cleanupRun = true
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			l.mu.Lock()
			now := time.Now()
			for k, e := range l.entries {
				if now.Sub(e.lastUse) > limiterTTL {
					delete(l.entries, k)
				}
			}
			l.mu.Unlock()
		}
	}()
}

// ChatTurnRateLimit limits chat turns per user, falling back to the client IP.
// Use after RequireSession.
func ChatTurnRateLimit(l *KeyedLimiter, ips *clientip.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := UserIDFromContext(r.Context())
			if !ok {
				key = "ip:" + ips.ClientIP(r)
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Burst()))
			if !l.Allow(key) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeJSONError(w, http.StatusTooManyRequests, "Too many chat messages. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
