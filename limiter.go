package texted

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits failed login attempts per IP address with a token
// bucket per IP: max attempts burst, refilled evenly over window.
type LoginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLoginLimiter creates a LoginLimiter that allows max failed attempts per window.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(max)),
		burst:   max,
		window:  window,
		now:     time.Now,
	}
}

func (l *LoginLimiter) get(ip string, now time.Time) *bucket {
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b
}

// Allow checks the limit and records an attempt in one step.
func (l *LoginLimiter) Allow(ip string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(ip, now).lim.AllowN(now, 1)
}

// Check returns true if the IP has attempts left. It records nothing; call
// Record on failure.
func (l *LoginLimiter) Check(ip string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(ip, now).lim.TokensAt(now) >= 1
}

// Record registers a failed login attempt for the given IP.
func (l *LoginLimiter) Record(ip string) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.get(ip, now).lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the window. Those buckets are full
// again, so dropping them changes no decision.
func (l *LoginLimiter) Sweep() int {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, ip)
			n++
		}
	}
	return n
}
