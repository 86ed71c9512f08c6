package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SignupGuard throttles account registrations and newsletter signups per client IP:
// a short cooldown between attempts and a daily cap on successes. Every check
// fails open when Redis is unavailable.
type SignupGuard struct {
	rc        *redis.Client
	cooldown  time.Duration
	maxPerDay int
	now       func() time.Time
}

// NewSignupGuard creates a guard; zero limits disable the respective check.
func NewSignupGuard(rc *redis.Client, cooldown time.Duration, maxPerDay int) *SignupGuard {
	return &SignupGuard{rc: rc, cooldown: cooldown, maxPerDay: maxPerDay, now: time.Now}
}

func signupKey(scope, kind, ip string, suffix ...string) string {
	key := "signup:" + scope + ":" + kind + ":" + ip
	for _, s := range suffix {
		key += ":" + s
	}
	return key
}

// Allow reports whether ip may attempt a signup in scope right now.
func (g *SignupGuard) Allow(ctx context.Context, scope, ip string) bool {
	if g == nil || g.rc == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if g.maxPerDay > 0 {
		n, err := g.rc.Get(ctx, signupKey(scope, "day", ip, g.now().Format("20060102"))).Int()
		if err == nil && n >= g.maxPerDay {
			return false
		}
	}
	if g.cooldown > 0 {
		ok, err := g.rc.SetNX(ctx, signupKey(scope, "cooldown", ip), "1", g.cooldown).Result()
		if err == nil && !ok {
			return false
		}
	}
	return true
}

// Record counts a successful signup towards today's cap.
func (g *SignupGuard) Record(ctx context.Context, scope, ip string) {
	if g == nil || g.rc == nil || g.maxPerDay <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	key := signupKey(scope, "day", ip, g.now().Format("20060102"))
	if err := g.rc.Incr(ctx, key).Err(); err == nil {
		_ = g.rc.Expire(ctx, key, 24*time.Hour).Err()
	}
}
