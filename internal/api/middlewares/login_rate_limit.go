package middlewares

import (
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// loginAttempts counts one attempt and arms the window on the same call, so
// a counter can never outlive it. Returns {attempts, ttl ms}.
var loginAttempts = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// LoginRateLimit counts attempts per client IP in a fixed window. It fails
// open when Redis is missing or unreachable.
func LoginRateLimit(rdb redis.Scripter, max int, win time.Duration) func(http.Handler) http.Handler {
	if max <= 0 {
		max = 10
	}
	if win <= 0 {
		win = 5 * time.Minute
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip == "" || rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := "rl:login:" + ip
			res, err := loginAttempts.Run(r.Context(), rdb, []string{key}, win.Milliseconds()).Int64Slice()
			if err != nil || len(res) != 2 {
				log.Printf("[ratelimit] login limiter unavailable: %v (allowing request)", err)
				next.ServeHTTP(w, r)
				return
			}
			if res[0] > int64(max) {
				reject(w, r, "login", key, time.Duration(res[1])*time.Millisecond, "too many login attempts")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
