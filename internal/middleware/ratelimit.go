package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/config"
)

// Token bucket evaluated atomically in Redis. KEYS[1] is the bucket,
// ARGV: capacity, refill tokens, refill interval ms, now ms, ttl sec.
// Returns {allowed, remaining}.
const tokenBucketScript = `
local key      = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill   = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now      = tonumber(ARGV[4])
local ttl      = tonumber(ARGV[5])

local bucket = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(bucket[1])
local ts     = tonumber(bucket[2])

if tokens == nil then
  tokens = capacity
  ts = now
else
  local elapsed = now - ts
  if elapsed >= interval then
    local ticks = math.floor(elapsed / interval)
    tokens = math.min(capacity, tokens + ticks * refill)
    ts = ts + ticks * interval
  end
end

local allowed = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens}
`

var tokenBucket = redis.NewScript(tokenBucketScript)

// RateLimit applies a per-client-IP token bucket to the route. It exists
// for the invite acceptance endpoint, where six-digit codes would
// otherwise be guessable by brute force. The limiter fails open: if
// Redis is nil or the script errors, the request proceeds and the error
// is logged.
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig, log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Enabled || rdb == nil {
				return next(c)
			}

			key := cfg.Prefix + ":" + c.RealIP()
			now := time.Now().UnixMilli()
			res, err := tokenBucket.Run(c.Request().Context(), rdb,
				[]string{key},
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				now,
				int(cfg.TTL.Seconds()),
			).Slice()
			if err != nil || len(res) < 1 {
				log.WithError(err).Warn("ratelimit: script failed, allowing request")
				return next(c)
			}

			allowed, _ := res[0].(int64)
			if allowed != 1 {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts, slow down"})
			}
			return next(c)
		}
	}
}
