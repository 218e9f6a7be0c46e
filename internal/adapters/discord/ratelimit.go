package discord

import (
	"sync"
	"time"
)

// userLimiter: una acción por usuario cada win.
type userLimiter struct {
	mu   sync.Mutex
	next map[int64]time.Time
	win  time.Duration
	now  func() time.Time
}

func newUserLimiter(window time.Duration) *userLimiter {
	return &userLimiter{next: map[int64]time.Time{}, win: window, now: time.Now}
}

func (l *userLimiter) Allow(userID int64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.next[userID]; ok && now.Before(until) {
		return false
	}
	l.next[userID] = now.Add(l.win)
	if len(l.next) > 1024 {
		for id, until := range l.next {
			if now.After(until) {
				delete(l.next, id)
			}
		}
	}
	return true
}
