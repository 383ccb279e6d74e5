package vault

import (
	"os"
	"strconv"
	"time"

	"github.com/cedar-team/oolong"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
)

// Defaults applied when neither a live secret nor an environment override
// supplies a configuration field.
const (
	DefaultSessionTimeout   = 1800
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 900
	DefaultRedisHost        = "localhost"
	DefaultRedisPort        = 6379
)

// Environment variables consulted by the fallback resolver, one per composed
// configuration field.
const (
	JWTSecretEnvVar         = "JWT_SECRET"
	SessionTimeoutEnvVar    = "SESSION_TIMEOUT"
	MaxLoginAttemptsEnvVar  = "MAX_LOGIN_ATTEMPTS"
	LockoutDurationEnvVar   = "LOCKOUT_DURATION"
	OAuthClientIDEnvVar     = "OAUTH_CLIENT_ID"
	OAuthClientSecretEnvVar = "OAUTH_CLIENT_SECRET"
	RedisHostEnvVar         = "REDIS_HOST"
	RedisPortEnvVar         = "REDIS_PORT"
	RedisPasswordEnvVar     = "REDIS_PASSWORD"
)

// EnvConfigResolver supplies a degraded configuration sourced from the local
// process environment for when live secret retrieval fails. It never performs
// network I/O and always succeeds.
type EnvConfigResolver struct{}

// NewEnvConfigResolver creates a new resolver over the process environment.
func NewEnvConfigResolver() *EnvConfigResolver {
	return &EnvConfigResolver{}
}

// Resolve builds a configuration from environment variables, applying the
// documented default for each field that is unset. It logs a warning so that
// operators can distinguish live configuration from fallback in telemetry.
func (r *EnvConfigResolver) Resolve() *oolong.ComposedConfig {
	grip.Warning(message.Fields{
		"message": "degraded configuration in effect, sourced from the process environment instead of the secret server",
	})

	return &oolong.ComposedConfig{
		JWTSecret:         os.Getenv(JWTSecretEnvVar),
		SessionTimeout:    envInt(SessionTimeoutEnvVar, DefaultSessionTimeout),
		MaxLoginAttempts:  envInt(MaxLoginAttemptsEnvVar, DefaultMaxLoginAttempts),
		LockoutDuration:   envInt(LockoutDurationEnvVar, DefaultLockoutDuration),
		OAuthClientID:     os.Getenv(OAuthClientIDEnvVar),
		OAuthClientSecret: os.Getenv(OAuthClientSecretEnvVar),
		RedisHost:         envString(RedisHostEnvVar, DefaultRedisHost),
		RedisPort:         envInt(RedisPortEnvVar, DefaultRedisPort),
		RedisPassword:     os.Getenv(RedisPasswordEnvVar),
		FetchedAt:         time.Now(),
		Source:            oolong.ConfigSourceFallback,
	}
}

func envString(name, def string) string {
	if val := os.Getenv(name); val != "" {
		return val
	}
	return def
}

func envInt(name string, def int) int {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return def
	}
	return val
}
