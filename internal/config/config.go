package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/library-api/internal/security/password"
	jwtutil "github.com/5w1tchy/library-api/internal/security/jwt"
	"github.com/5w1tchy/library-api/internal/validate"
)

type Config struct {
	Port   string
	AppEnv string

	DatabaseURL string

	RedisURL      string // full URL, e.g. rediss://default:<token>@host:port
	RedisAddr     string
	RedisUser     string
	RedisPassword string

	JWT    jwtutil.Config
	Argon2 password.Params

	AdminEmail    string
	AdminPassword string

	SweepSchedule string
	SweepTZ       *time.Location
	ReportBucket  string

	TLSCert string
	TLSKey  string

	CORSOrigins []string
	MaxBodySize int64

	RateLimit RateLimit
}

type RateLimit struct {
	BucketRate    float64 // tokens per second
	BucketBurst   int
	WindowLimit   int
	Window        time.Duration
	LoginAttempts int
	LoginWindow   time.Duration
}

// Load reads .env files (missing ones are ignored), validates the
// environment and returns the typed configuration.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := validate.Env(); err != nil {
		return Config{}, err
	}

	c := Config{
		Port:          envStr("PORT", "3000"),
		AppEnv:        envStr("APP_ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("UPSTASH_REDIS_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisUser:     os.Getenv("REDIS_USER"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWT:           jwtutil.LoadConfig(),
		Argon2:        password.ParamsFromEnv(),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SweepSchedule: envStr("SWEEP_SCHEDULE", "0 3 * * *"),
		SweepTZ:       time.UTC,
		ReportBucket:  os.Getenv("REPORT_BUCKET"),
		TLSCert:       os.Getenv("TLS_CERT"),
		TLSKey:        os.Getenv("TLS_KEY"),
		CORSOrigins:   splitList(envStr("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		MaxBodySize:   int64(envInt("MAX_BODY_SIZE", 1<<20)),
		RateLimit: RateLimit{
			BucketRate:    envFloat("RATE_LIMIT_RPS", 5),
			BucketBurst:   envInt("RATE_LIMIT_BURST", 20),
			WindowLimit:   envInt("RATE_LIMIT_WINDOW_MAX", 3000),
			Window:        envDur("RATE_LIMIT_WINDOW", time.Hour),
			LoginAttempts: envInt("LOGIN_MAX_ATTEMPTS", 10),
			LoginWindow:   envDur("LOGIN_WINDOW", 5*time.Minute),
		},
	}
	if tz := os.Getenv("SWEEP_TZ"); tz != "" {
		// already checked by validate.Env
		c.SweepTZ, _ = time.LoadLocation(tz)
	}
	if c.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return Config{}, errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	return c, nil
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + strings.TrimPrefix(c.Port, ":") }

// RedisOptions builds client options from either the full URL or the split
// fields. ok is false when no Redis is configured.
func (c Config) RedisOptions() (opt *redis.Options, ok bool, err error) {
	if c.RedisURL != "" {
		opt, err = redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, false, fmt.Errorf("invalid UPSTASH_REDIS_URL: %w", err)
		}
		if opt.TLSConfig == nil && strings.HasPrefix(c.RedisURL, "rediss://") {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		return opt, true, nil
	}
	if c.RedisAddr == "" {
		return nil, false, nil
	}
	opt = &redis.Options{
		Addr:         c.RedisAddr,
		Username:     c.RedisUser,
		Password:     c.RedisPassword,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
	if c.RedisPassword != "" {
		// managed Redis with auth is reached over TLS
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opt, true, nil
}

// --- helpers ---

func envStr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
