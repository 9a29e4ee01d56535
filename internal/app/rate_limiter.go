package app

import (
	"sync"
	"time"

	"github.com/campuslive/classroom/internal/domain"
)

// HandRaiseLimiter keeps one student from flooding the teacher with
// hand-raise toggles: a sliding window of attempts per user.
type HandRaiseLimiter struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
}

func NewHandRaiseLimiter(limit int, interval time.Duration) *HandRaiseLimiter {
	return &HandRaiseLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *HandRaiseLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[uid]

	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[uid] = fresh

	return true
}

// Forget drops a user's window, e.g. when they leave the room.
func (rl *HandRaiseLimiter) Forget(uid domain.UserID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, uid)
}
