package jwtutil

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	ClockSkew time.Duration
}

func LoadConfig() Config {
	return Config{
		Secret:    []byte(os.Getenv("AUTH_JWT_SECRET")),
		AccessTTL: parseDuration("AUTH_ACCESS_TTL", 15*time.Minute),
		ClockSkew: time.Duration(parseInt("AUTH_CLOCK_SKEW_SEC", 60)) * time.Second,
	}
}

func parseInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
