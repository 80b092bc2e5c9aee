package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultCommandRate  = rate.Limit(1) // per second
	DefaultCommandBurst = 5
)

// CommandLimiter throttles commands per guild member.
type CommandLimiter struct {
	limiters map[string]*rate.Limiter
	mutex    sync.RWMutex
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func NewCommandLimiter(r rate.Limit, burst int) *CommandLimiter {
	return &CommandLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *CommandLimiter) Allow(guildID string, userID string) bool {
	return l.limiter(guildID+":"+userID).AllowN(l.now(), 1)
}

func (l *CommandLimiter) limiter(key string) *rate.Limiter {
	l.mutex.RLock()
	limiter, exists := l.limiters[key]
	l.mutex.RUnlock()
	if exists {
		return limiter
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	if limiter, exists = l.limiters[key]; !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}
