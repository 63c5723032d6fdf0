package server

import (
	"sync"
	"time"

	"github.com/fabolze/SoAWebApp-sub000/internal/config"
)

// AuthLimiter locks out clients that keep presenting a wrong admin token.
// Each repeat lockout doubles in length up to the configured maximum.
type AuthLimiter struct {
	mu          sync.Mutex
	clients     map[string]*failures
	maxAttempts int
	lockout     time.Duration
	maxLockout  time.Duration
	now         func() time.Time
	sweepEvery  time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

type failures struct {
	count       int
	lockouts    int
	lockedUntil time.Time
}

// NewAuthLimiter starts a limiter. Zero settings fall back to 5 attempts and a
// 30s lockout capped at 5m. Call Stop to end its cleanup goroutine.
func NewAuthLimiter(cfg config.RateLimitConfig) *AuthLimiter {
	l := &AuthLimiter{
		clients:     make(map[string]*failures),
		maxAttempts: cfg.MaxAttempts,
		lockout:     time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:  time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		now:         time.Now,
		sweepEvery:  5 * time.Minute,
		stop:        make(chan struct{}),
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = 5
	}
	if l.lockout <= 0 {
		l.lockout = 30 * time.Second
	}
	if l.maxLockout < l.lockout {
		l.maxLockout = max(l.lockout, 5*time.Minute)
	}

	go l.sweepLoop()
	return l
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *AuthLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Locked reports whether ip is locked out and for how much longer.
func (l *AuthLimiter) Locked(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, ok := l.clients[ip]
	if !ok {
		return false, 0
	}
	if remaining := f.lockedUntil.Sub(l.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// Fail records a bad token from ip and reports whether it is now locked out.
func (l *AuthLimiter) Fail(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	f, ok := l.clients[ip]
	if !ok {
		f = &failures{}
		l.clients[ip] = f
	}
	if remaining := f.lockedUntil.Sub(now); remaining > 0 {
		return true, remaining
	}

	f.count++
	if f.count < l.maxAttempts {
		return false, 0
	}

	f.lockouts++
	f.count = 0
	d := l.lockout
	for i := 1; i < f.lockouts && d < l.maxLockout; i++ {
		d *= 2
	}
	d = min(d, l.maxLockout)
	f.lockedUntil = now.Add(d)
	return true, d
}

// Succeed clears the failure history for ip.
func (l *AuthLimiter) Succeed(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, ip)
}

// Attempts returns the failures counted toward the next lockout.
func (l *AuthLimiter) Attempts(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.clients[ip]; ok {
		return f.count
	}
	return 0
}

func (l *AuthLimiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep forgets clients whose last lockout ended over ten minutes ago and who
// have no pending failures.
func (l *AuthLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-10 * time.Minute)
	for ip, f := range l.clients {
		if f.count == 0 && f.lockedUntil.Before(cutoff) {
			delete(l.clients, ip)
		}
	}
}
