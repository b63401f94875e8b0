package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"sumo-arena/internal/config"
)

const limiterCleanupInterval = 5 * time.Minute

// ipLimiterEntry tracks per-IP token bucket state.
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter applies a per-IP token bucket to HTTP requests. Stale
// entries are evicted in the background so abandoned IPs don't leak.
type IPRateLimiter struct {
	limiters sync.Map // map[string]*ipLimiterEntry
	cfg      config.RateLimitConfig

	stopChan chan struct{}
	stopOnce sync.Once

	allowedCount  uint64 // atomic
	rejectedCount uint64 // atomic
}

// NewIPRateLimiter creates a limiter and starts its cleanup loop.
func NewIPRateLimiter(cfg config.RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop halts the cleanup loop.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopChan)
	})
}

// Allow reports whether a request from ip fits in its budget.
func (rl *IPRateLimiter) Allow(ip string) bool {
	now := time.Now()

	var entry *ipLimiterEntry
	if v, ok := rl.limiters.Load(ip); ok {
		entry = v.(*ipLimiterEntry)
		entry.lastSeen = now
	} else {
		fresh := &ipLimiterEntry{
			limiter:  rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
			lastSeen: now,
		}
		actual, _ := rl.limiters.LoadOrStore(ip, fresh)
		entry = actual.(*ipLimiterEntry)
	}

	if entry.limiter.Allow() {
		atomic.AddUint64(&rl.allowedCount, 1)
		return true
	}
	atomic.AddUint64(&rl.rejectedCount, 1)
	return false
}

// Middleware rejects over-budget requests with 429.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			recordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stats returns limiter counters.
func (rl *IPRateLimiter) Stats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  atomic.LoadUint64(&rl.allowedCount),
		"rejected": atomic.LoadUint64(&rl.rejectedCount),
	}
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * limiterCleanupInterval)
			rl.limiters.Range(func(key, value any) bool {
				if value.(*ipLimiterEntry).lastSeen.Before(cutoff) {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

// ConnLimiter caps concurrent WebSocket sessions, both in total and
// per source IP.
type ConnLimiter struct {
	perIP    sync.Map // map[string]*int32
	total    int32    // atomic
	maxTotal int
	maxPerIP int
}

// NewConnLimiter creates a connection limiter from the configured caps.
func NewConnLimiter(cfg config.LimitsConfig) *ConnLimiter {
	return &ConnLimiter{
		maxTotal: cfg.MaxConnections,
		maxPerIP: cfg.MaxConnectionsPerIP,
	}
}

// Acquire reserves a connection slot for ip. The caller must Release
// the slot when the session ends. The empty return string means the
// slot was granted; otherwise it names the exhausted limit.
func (cl *ConnLimiter) Acquire(ip string) string {
	for {
		total := atomic.LoadInt32(&cl.total)
		if int(total) >= cl.maxTotal {
			return "ws_total_limit"
		}
		if atomic.CompareAndSwapInt32(&cl.total, total, total+1) {
			break
		}
	}

	actual, _ := cl.perIP.LoadOrStore(ip, new(int32))
	counter := actual.(*int32)
	for {
		current := atomic.LoadInt32(counter)
		if int(current) >= cl.maxPerIP {
			atomic.AddInt32(&cl.total, -1)
			return "ws_ip_limit"
		}
		if atomic.CompareAndSwapInt32(counter, current, current+1) {
			return ""
		}
	}
}

// Release frees a slot reserved by Acquire.
func (cl *ConnLimiter) Release(ip string) {
	atomic.AddInt32(&cl.total, -1)
	if v, ok := cl.perIP.Load(ip); ok {
		atomic.AddInt32(v.(*int32), -1)
	}
}

// Count returns the number of active sessions.
func (cl *ConnLimiter) Count() int {
	return int(atomic.LoadInt32(&cl.total))
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
