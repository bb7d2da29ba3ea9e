package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

// seconds-valued env var; non-positive values fall back to def
func durationFromEnv(key string, def time.Duration) time.Duration {
	n := intFromEnv(key, 0)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func IntFromEnv(key string, def int) int { return intFromEnv(key, def) }

func BoolFromEnv(key string) bool { return boolFromEnv(key) }

func DurationFromEnv(key string, def time.Duration) time.Duration {
	return durationFromEnv(key, def)
}

// TokenLifespan is how long a login session stays valid.
//
// Set via env:
// - TOKEN_HOUR_LIFESPAN=12
func TokenLifespan() time.Duration {
	return time.Duration(intFromEnv("TOKEN_HOUR_LIFESPAN", 12)) * time.Hour
}

// AdminPurgeKey is the shared secret for slice purges. Empty disables the purge route.
func AdminPurgeKey() string {
	return strings.TrimSpace(os.Getenv("ADMIN_PURGE_KEY"))
}

// AcquireTimeout bounds the wait for a pooled connection.
//
// Set via env:
// - DB_ACQUIRE_TIMEOUT_SECONDS=5
func AcquireTimeout() time.Duration {
	return durationFromEnv("DB_ACQUIRE_TIMEOUT_SECONDS", 5*time.Second)
}

type RosterSettings struct {
	BaseURL         string
	APIKey          string
	PageSize        int
	TTL             time.Duration
	PrewarmAttempts int
	PrewarmBackoff  time.Duration
}

// GetRosterSettings reads ROSTER_* variables. An empty BaseURL disables the roster.
func GetRosterSettings() RosterSettings {
	return RosterSettings{
		BaseURL:         strings.TrimRight(strings.TrimSpace(os.Getenv("ROSTER_API_URL")), "/"),
		APIKey:          strings.TrimSpace(os.Getenv("ROSTER_API_KEY")),
		PageSize:        intFromEnv("ROSTER_PAGE_SIZE", 100),
		TTL:             durationFromEnv("ROSTER_TTL_SECONDS", 10*time.Minute),
		PrewarmAttempts: intFromEnv("ROSTER_PREWARM_ATTEMPTS", 5),
		PrewarmBackoff:  durationFromEnv("ROSTER_PREWARM_BACKOFF_SECONDS", 10*time.Second),
	}
}

// AuthRequired makes supervisor routes demand a session token.
//
// Set via env:
// - AUTH_REQUIRED=true
func AuthRequired() bool {
	return boolFromEnv("AUTH_REQUIRED")
}
