package middlewares

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/library-api/internal/access"
	"github.com/5w1tchy/library-api/internal/api/apperr"
)

// KeyFunc names the Redis key a request is counted under.
type KeyFunc func(r *http.Request) string

// PerIPKey buckets by client IP.
func PerIPKey(prefix string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientIP(r)
		if ip == "" {
			ip = "unknown"
		}
		return prefix + ":" + ip
	}
}

// PerPrincipalKey buckets authenticated callers by reader id and everyone
// else by IP. It must run after Authenticate.
func PerPrincipalKey(prefix string) KeyFunc {
	byIP := PerIPKey(prefix + ":ip")
	return func(r *http.Request) string {
		if p := access.PrincipalFrom(r.Context()); p.Authenticated() {
			return prefix + ":reader:" + strconv.FormatInt(p.ReaderID, 10)
		}
		return byIP(r)
	}
}

// clientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// reject answers 429 with a whole-second Retry-After of at least one.
func reject(w http.ResponseWriter, r *http.Request, policy, key string, retry time.Duration, detail string) {
	sec := int64((retry + time.Second - 1) / time.Second)
	if sec < 1 {
		sec = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(sec, 10))
	log.Printf("[ratelimit] %s blocked key=%s retry=%ds", policy, key, sec)
	apperr.WriteStatus(w, r, http.StatusTooManyRequests, "Too Many Requests", detail)
}

func setLimitHeaders(w http.ResponseWriter, policy string, limit, remaining int64) {
	w.Header().Set("X-RateLimit-Policy", policy)
	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, remaining), 10))
}

// tokenBucket refills ARGV[1] tokens per second up to ARGV[2] and takes one.
// Returns {allowed, whole tokens left, retry after ms}.
var tokenBucket = redis.NewScript(`
local rate, cap = tonumber(ARGV[1]), tonumber(ARGV[2])
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local st = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(st[1]) or cap, tonumber(st[2]) or now
tokens = math.min(cap, tokens + math.max(0, now - ts) * rate / 1000)

local allowed, wait = 0, 0
if tokens >= 1 then
  tokens, allowed = tokens - 1, 1
else
  wait = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(cap / rate * 1000))
return {allowed, math.floor(tokens), wait}
`)

// RedisTokenBucket smooths bursts per key.
type RedisTokenBucket struct {
	rdb   *redis.Client
	keyFn KeyFunc
	rate  float64
	burst int
}

func NewRedisTokenBucket(rdb *redis.Client, ratePerSecond float64, burst int, keyFn KeyFunc) *RedisTokenBucket {
	return &RedisTokenBucket{rdb: rdb, keyFn: keyFn, rate: ratePerSecond, burst: burst}
}

func (tb *RedisTokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := tb.keyFn(r)
		res, err := tokenBucket.Run(r.Context(), tb.rdb, []string{key},
			strconv.FormatFloat(tb.rate, 'f', -1, 64), tb.burst,
		).Int64Slice()
		if err != nil || len(res) != 3 {
			log.Printf("[ratelimit] token bucket unavailable: %v (allowing request)", err)
			next.ServeHTTP(w, r)
			return
		}

		setLimitHeaders(w, "token-bucket", int64(tb.burst), res[1])
		if res[0] != 1 {
			reject(w, r, "token-bucket", key, time.Duration(res[2])*time.Millisecond, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedisSlidingWindow caps requests per key over a rolling window, one
// sorted-set member per request.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	keyFn  KeyFunc
	limit  int
	window time.Duration
}

func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, keyFn KeyFunc) *RedisSlidingWindow {
	return &RedisSlidingWindow{rdb: rdb, keyFn: keyFn, limit: limit, window: window}
}

func (sw *RedisSlidingWindow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := sw.keyFn(r)
		now := time.Now().UnixMilli()
		since := now - sw.window.Milliseconds()

		pipe := sw.rdb.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(since, 10))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: uuid.NewString()})
		count := pipe.ZCard(ctx, key)
		oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.PExpire(ctx, key, sw.window+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("[ratelimit] sliding window unavailable: %v (allowing request)", err)
			next.ServeHTTP(w, r)
			return
		}

		n := count.Val()
		setLimitHeaders(w, "sliding-window", int64(sw.limit), int64(sw.limit)-n)
		if n > int64(sw.limit) {
			retry := time.Second
			if first := oldest.Val(); len(first) == 1 {
				retry = time.Duration(int64(first[0].Score)-since) * time.Millisecond
			}
			reject(w, r, "sliding-window", key, retry, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
