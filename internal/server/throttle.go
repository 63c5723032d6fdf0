package server

import (
	"time"

	"github.com/fabolze/SoAWebApp-sub000/internal/config"
)

// frameThrottle is a sliding-window limit on frames for one WebSocket
// session. It is owned by the session's read goroutine and not locked.
type frameThrottle struct {
	maxFrames int
	window    time.Duration
	seen      []time.Time
	now       func() time.Time
}

func newFrameThrottle(cfg config.FrameLimitConfig) *frameThrottle {
	return &frameThrottle{
		maxFrames: cfg.MaxFrames,
		window:    cfg.Window,
		seen:      make([]time.Time, 0, max(cfg.MaxFrames, 0)),
		now:       time.Now,
	}
}

// allow records a frame and reports whether it fits the window. When it does
// not, wait is how long until the oldest frame ages out.
func (f *frameThrottle) allow() (ok bool, wait time.Duration) {
	if f.maxFrames <= 0 {
		return true, 0
	}

	now := f.now()
	cutoff := now.Add(-f.window)
	kept := f.seen[:0]
	for _, at := range f.seen {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	f.seen = kept

	if len(f.seen) >= f.maxFrames {
		return false, f.seen[0].Add(f.window).Sub(now)
	}
	f.seen = append(f.seen, now)
	return true, 0
}
