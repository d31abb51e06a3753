package auth

import (
	"sync"
	"time"
)

// RateLimiter provides rate limiting for login attempts.
// It tracks failed attempts per IP+username combination using a sliding window.
type RateLimiter struct {
	mu              sync.RWMutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // Maximum attempts before lockout (default: 5)
	WindowDuration  time.Duration // Time window for counting attempts (default: 15m)
	LockoutDuration time.Duration // How long to lock out after max attempts (default: 30m)
	CleanupInterval time.Duration // How often to clean up expired records (default: 5m)
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}

func (rl *RateLimiter) makeKey(ip, username string) string {
	return ip + ":" + username
}

// Allow checks if a login attempt should be allowed.
// If not allowed, retryAfter indicates when the lockout expires.
func (rl *RateLimiter) Allow(ip, username string) (allowed bool, retryAfter time.Duration) {
	key := rl.makeKey(ip, username)
	now := time.Now()

	rl.mu.RLock()
	record, exists := rl.attempts[key]
	rl.mu.RUnlock()

	if !exists {
		return true, 0
	}

	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}

	// Window expired: start over
	if now.Sub(record.firstAttempt) > rl.windowDuration {
		return true, 0
	}

	if record.count < rl.maxAttempts {
		return true, 0
	}

	return false, rl.lockoutDuration
}

// RecordFailure records a failed login attempt and reports whether it
// triggered a lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (locked bool, retryAfter time.Duration) {
	key := rl.makeKey(ip, username)
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[key]
	if !exists {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[key] = record
	}

	if now.Sub(record.firstAttempt) > rl.windowDuration {
		record.count = 0
		record.firstAttempt = now
		record.lockedUntil = time.Time{}
	}

	record.count++

	if record.count >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockoutDuration)
		return true, rl.lockoutDuration
	}

	return false, 0
}

// RecordSuccess clears the failure record for a successful login.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	key := rl.makeKey(ip, username)

	rl.mu.Lock()
	delete(rl.attempts, key)
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := time.Now()
	expiry := rl.windowDuration + rl.lockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, record := range rl.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)

		if windowExpired && lockoutExpired {
			delete(rl.attempts, key)
		}
	}
}
