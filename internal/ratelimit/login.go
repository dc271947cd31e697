// Package ratelimit throttles credential-guessing against the login endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed-or-attempted logins per username+IP bucket in
// redis. When redis is unavailable the limiter fails open: availability wins
// over strictness, with a log line for the operator.
type LoginLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	log    *slog.Logger
}

func NewLoginLimiter(rdb *redis.Client, max int, window time.Duration, log *slog.Logger) *LoginLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &LoginLimiter{rdb: rdb, max: max, window: window, log: log}
}

func (l *LoginLimiter) key(username, ip string) string {
	return fmt.Sprintf("login_attempts:%s:%s", username, ip)
}

// attemptScript counts one attempt and stamps the window TTL atomically, so
// a crash between INCR and EXPIRE cannot leave an immortal counter.
var attemptScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
else
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
  end
end
return n
`)

// Allow registers one attempt and reports whether it is within the window
// budget.
func (l *LoginLimiter) Allow(ctx context.Context, username, ip string) bool {
	n, err := attemptScript.Run(ctx, l.rdb, []string{l.key(username, ip)}, l.window.Milliseconds()).Int64()
	if err != nil {
		l.log.Warn("login limiter unavailable, failing open", "err", err)
		return true
	}
	return n <= int64(l.max)
}

// Reset clears the bucket after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username, ip string) {
	if err := l.rdb.Del(ctx, l.key(username, ip)).Err(); err != nil {
		l.log.Warn("login limiter reset failed", "err", err)
	}
}
