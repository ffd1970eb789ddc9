package config

import (
	"sync"
	"time"
)

// RateLimiter manages rate limiting per participant
type RateLimiter struct {
	limits    map[string]*UserRateLimit
	mutex     sync.Mutex
	config    *ServerConfig
	now       func() time.Time
	lastPrune time.Time
}

// UserRateLimit tracks rate limiting for a specific participant
type UserRateLimit struct {
	MessageCount int
	WindowStart  time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *ServerConfig) *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*UserRateLimit),
		config: config,
		now:    time.Now,
	}
}

// CheckRateLimit checks if a participant can send a message and counts it when allowed
func (rl *RateLimiter) CheckRateLimit(name string) bool {
	if !rl.config.EnableRateLimit {
		return true
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	rl.pruneExpired(now)

	userLimit, exists := rl.limits[name]
	if !exists {
		userLimit = &UserRateLimit{WindowStart: now}
		rl.limits[name] = userLimit
	}

	if now.Sub(userLimit.WindowStart) > rl.config.RateLimitWindow {
		userLimit.MessageCount = 0
		userLimit.WindowStart = now
	}

	if userLimit.MessageCount >= rl.config.RateLimitMessages {
		return false
	}

	userLimit.MessageCount++
	return true
}

// pruneExpired drops windows that ended, at most once per window length
func (rl *RateLimiter) pruneExpired(now time.Time) {
	if now.Sub(rl.lastPrune) <= rl.config.RateLimitWindow {
		return
	}
	for name, userLimit := range rl.limits {
		if now.Sub(userLimit.WindowStart) > rl.config.RateLimitWindow {
			delete(rl.limits, name)
		}
	}
	rl.lastPrune = now
}

// Len returns the number of tracked windows
func (rl *RateLimiter) Len() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.limits)
}

// Forget drops the window of a participant, used once they are evicted
func (rl *RateLimiter) Forget(names ...string) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	for _, name := range names {
		delete(rl.limits, name)
	}
}
