package oolong

import (
	"context"
	"time"
)

// ConfigSource indicates where a composed configuration came from.
type ConfigSource string

const (
	// ConfigSourceLive indicates that the configuration was composed from
	// secrets fetched from the secret server.
	ConfigSourceLive ConfigSource = "live"
	// ConfigSourceFallback indicates that the configuration was derived from
	// the local process environment because live retrieval failed.
	ConfigSourceFallback ConfigSource = "fallback"
)

// ComposedConfig is an aggregate configuration assembled from several secret
// payloads (or from environment fallback when the live source is
// unavailable).
type ComposedConfig struct {
	// JWTSecret is the signing secret for JSON web tokens.
	JWTSecret string
	// SessionTimeout is the session expiry in seconds.
	SessionTimeout int
	// MaxLoginAttempts is the number of failed logins tolerated before a
	// lockout.
	MaxLoginAttempts int
	// LockoutDuration is the login lockout period in seconds.
	LockoutDuration int
	// OAuthClientID and OAuthClientSecret identify the service to its OAuth
	// provider.
	OAuthClientID     string
	OAuthClientSecret string
	// RedisHost, RedisPort, and RedisPassword locate the cache backing
	// sessions.
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// FetchedAt is when the configuration was composed. It determines cache
	// expiry for live configurations.
	FetchedAt time.Time
	// Source indicates whether the configuration is live or fallback.
	Source ConfigSource
}

// ConfigProvider provides a common interface to access composed configuration
// without a network round trip per access.
type ConfigProvider interface {
	// GetConfig returns the current composed configuration. It never fails
	// solely because the secret server is unavailable - it degrades to
	// environment-derived defaults instead.
	GetConfig(ctx context.Context) (*ComposedConfig, error)
	// GetConfigValue returns a single field of the composed configuration by
	// its key.
	GetConfigValue(ctx context.Context, key string) (interface{}, error)
	// Invalidate clears any cached configuration, forcing the next read to
	// refetch from the secret server.
	Invalidate()
}
