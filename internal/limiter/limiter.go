package limiter

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/codevet/crucible/internal/metrics"
)

// RateLimiter bounds inbound submissions three ways: a global
// request rate, a per-IP rate, and a ceiling on concurrently running
// executions. Candidate code is expensive to run, so the concurrency
// cap is the one that matters under attack.
type RateLimiter struct {
	globalLimiter *rate.Limiter
	perIPLimiters sync.Map
	ipRate        rate.Limit
	ipBurst       int
	maxConcurrent int64
	currentConc   atomic.Int64
	stopCleanup   chan struct{}
}

func NewRateLimiter(globalRPS float64, perIPRPS float64, perIPBurst int, maxConcurrent int) *RateLimiter {
	return &RateLimiter{
		globalLimiter: rate.NewLimiter(rate.Limit(globalRPS), int(globalRPS)*2),
		ipRate:        rate.Limit(perIPRPS),
		ipBurst:       perIPBurst,
		maxConcurrent: int64(maxConcurrent),
		stopCleanup:   make(chan struct{}),
	}
}

func (rl *RateLimiter) getIPLimiter(ip string) *rate.Limiter {
	if limiter, ok := rl.perIPLimiters.Load(ip); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := rl.perIPLimiters.LoadOrStore(ip, rate.NewLimiter(rl.ipRate, rl.ipBurst))
	return limiter.(*rate.Limiter)
}

func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.globalLimiter.Allow() {
		metrics.RateLimitHits.Inc()
		return false
	}
	if !rl.getIPLimiter(ip).Allow() {
		metrics.RateLimitHits.Inc()
		return false
	}
	if rl.currentConc.Add(1) > rl.maxConcurrent {
		rl.currentConc.Add(-1)
		metrics.RateLimitHits.Inc()
		return false
	}
	return true
}

func (rl *RateLimiter) Done() {
	if rl.currentConc.Add(-1) < 0 {
		rl.currentConc.Add(1)
	}
}

func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = forwarded
		}

		if !rl.Allow(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		defer rl.Done()

		next(w, r)
	}
}

// StartCleanup periodically drops idle per-IP limiters so the map does
// not grow without bound.
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.perIPLimiters.Range(func(key, value any) bool {
					rl.perIPLimiters.Delete(key)
					return true
				})
			case <-rl.stopCleanup:
				return
			}
		}
	}()
}

func (rl *RateLimiter) StopCleanup() {
	close(rl.stopCleanup)
}
