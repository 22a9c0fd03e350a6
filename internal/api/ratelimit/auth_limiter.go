// Package ratelimit throttles signup and login attempts.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
)

const (
	DefaultIPRequestsPerMinute = 10
	DefaultIPWindowDuration    = time.Minute
	DefaultMaxFailedAttempts   = 5
	DefaultLockoutDuration     = 15 * time.Minute
	MaxLockoutDuration         = time.Hour
)

type ipBucket struct {
	count     int64
	resetTime time.Time
}

type accountLockout struct {
	failedAttempts int
	lockedUntil    time.Time
	lockoutCount   int
}

// AuthLimiter caps requests per client IP and locks an email out after
// repeated failed logins. Lockouts grow with each repeat, up to an hour.
type AuthLimiter struct {
	mu              sync.RWMutex
	clock           clockwork.Clock
	ipBuckets       map[string]*ipBucket
	accountLockouts map[string]*accountLockout
	stop            chan struct{}

	ipLimit             int64
	ipWindow            time.Duration
	maxFailedAttempts   int
	baseLockoutDuration time.Duration
}

func NewAuthLimiter() *AuthLimiter {
	return NewAuthLimiterWithClock(clockwork.NewRealClock())
}

func NewAuthLimiterWithClock(clock clockwork.Clock) *AuthLimiter {
	return &AuthLimiter{
		clock:               clock,
		ipBuckets:           make(map[string]*ipBucket),
		accountLockouts:     make(map[string]*accountLockout),
		ipLimit:             DefaultIPRequestsPerMinute,
		ipWindow:            DefaultIPWindowDuration,
		maxFailedAttempts:   DefaultMaxFailedAttempts,
		baseLockoutDuration: DefaultLockoutDuration,
	}
}

func (l *AuthLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.allowIP(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func (l *AuthLimiter) allowIP(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	bucket, exists := l.ipBuckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.ipBuckets[ip] = &ipBucket{
			count:     1,
			resetTime: now.Add(l.ipWindow),
		}
		return true
	}

	if bucket.count >= l.ipLimit {
		return false
	}

	bucket.count++
	return true
}

// LockoutRemaining reports how long email stays locked out; zero when it may
// try again.
func (l *AuthLimiter) LockoutRemaining(email string) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lockout, exists := l.accountLockouts[accountKey(email)]
	if !exists {
		return 0
	}

	remaining := lockout.lockedUntil.Sub(l.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *AuthLimiter) RecordFailedAttempt(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := accountKey(email)
	now := l.clock.Now()

	lockout, exists := l.accountLockouts[key]
	if !exists {
		lockout = &accountLockout{}
		l.accountLockouts[key] = lockout
	}

	if now.After(lockout.lockedUntil) && lockout.failedAttempts >= l.maxFailedAttempts {
		lockout.failedAttempts = 0
	}

	lockout.failedAttempts++

	if lockout.failedAttempts >= l.maxFailedAttempts {
		lockout.lockoutCount++
		duration := l.baseLockoutDuration * time.Duration(lockout.lockoutCount)
		if duration > MaxLockoutDuration {
			duration = MaxLockoutDuration
		}
		lockout.lockedUntil = now.Add(duration)
	}
}

func (l *AuthLimiter) RecordSuccessfulLogin(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.accountLockouts, accountKey(email))
}

func (l *AuthLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	for ip, bucket := range l.ipBuckets {
		if now.After(bucket.resetTime) {
			delete(l.ipBuckets, ip)
		}
	}

	for key, lockout := range l.accountLockouts {
		if now.After(lockout.lockedUntil) && lockout.failedAttempts < l.maxFailedAttempts {
			delete(l.accountLockouts, key)
		}
	}
}

// StartCleanup prunes expired entries every interval until StopCleanup.
func (l *AuthLimiter) StartCleanup(interval time.Duration) {
	l.mu.Lock()
	if l.stop != nil {
		l.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	l.stop = stop
	l.mu.Unlock()

	go func() {
		ticker := l.clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				l.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

func (l *AuthLimiter) StopCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
