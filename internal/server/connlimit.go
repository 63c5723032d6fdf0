package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/fabolze/SoAWebApp-sub000/internal/config"
)

// ConnLimiter caps concurrent WebSocket sessions per client IP and in total.
type ConnLimiter struct {
	mu       sync.Mutex
	sessions map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewConnLimiter creates a limiter; zero limits mean unlimited.
func NewConnLimiter(cfg config.ConnectionsConfig) *ConnLimiter {
	return &ConnLimiter{
		sessions: make(map[string]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// TryAcquire reserves a session slot for ip. It reports false when either
// limit is already reached.
func (c *ConnLimiter) TryAcquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.total >= c.maxTotal {
		return false
	}
	if c.maxPerIP > 0 && c.sessions[ip] >= c.maxPerIP {
		return false
	}
	c.sessions[ip]++
	c.total++
	return true
}

// Release returns a slot taken by TryAcquire.
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.sessions[ip]; n > 1 {
		c.sessions[ip] = n - 1
	} else {
		delete(c.sessions, ip)
	}
	if c.total > 0 {
		c.total--
	}
}

// Stats returns the open session count and the number of distinct IPs.
func (c *ConnLimiter) Stats() (total, ips int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, len(c.sessions)
}

// SessionsFor returns the open session count for ip.
func (c *ConnLimiter) SessionsFor(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[ip]
}

// clientIP returns the caller's address without its port. chi's RealIP
// middleware has already folded X-Forwarded-For / X-Real-IP into RemoteAddr.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
