package vault

import (
	"context"
	"encoding/json"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/cedar-team/oolong"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// DefaultCacheDuration is how long a live composed configuration is served
// from the cache before it is refetched.
const DefaultCacheDuration = 5 * time.Minute

// Logical paths composed into the configuration. The service-specific paths
// are derived from the provider's service name.
const (
	jwtConfigPath   = "jwt/config"
	redisConfigPath = "redis/config"
)

// ProviderOptions provide options to create a caching config provider.
type ProviderOptions struct {
	// Service is the logical service name whose config and OAuth secrets are
	// composed.
	Service *string
	// CacheDuration is how long a live configuration stays cached. It
	// defaults to DefaultCacheDuration.
	CacheDuration *time.Duration
}

// NewProviderOptions returns new unconfigured provider options.
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{}
}

// SetService sets the logical service name.
func (o *ProviderOptions) SetService(service string) *ProviderOptions {
	o.Service = &service
	return o
}

// SetCacheDuration sets how long a live configuration stays cached.
func (o *ProviderOptions) SetCacheDuration(d time.Duration) *ProviderOptions {
	o.CacheDuration = &d
	return o
}

// Validate checks that all required fields are given and sets defaults for
// unspecified options.
func (o *ProviderOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(utility.FromStringPtr(o.Service) == "", "must provide a service name")
	catcher.NewWhen(o.CacheDuration != nil && *o.CacheDuration <= 0, "cache duration must be positive")

	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	if o.CacheDuration == nil {
		d := DefaultCacheDuration
		o.CacheDuration = &d
	}

	return nil
}

// CachingConfigProvider provides a ConfigProvider implementation that
// memoizes a configuration composed from several secret reads. Composition is
// all-or-nothing: if any constituent read fails, the provider serves
// environment-derived fallback configuration instead, and the fallback is
// never cached so every subsequent call retries the live source.
type CachingConfigProvider struct {
	accessor oolong.SecretAccessor
	resolver *EnvConfigResolver
	opts     *ProviderOptions

	// mu serializes cache access and is held across a refetch, so concurrent
	// misses coalesce into a single fetch cycle.
	mu    sync.Mutex
	entry *oolong.ComposedConfig
}

// NewCachingConfigProvider creates a new provider that composes configuration
// through the given accessor and degrades to the environment when composition
// fails.
func NewCachingConfigProvider(a oolong.SecretAccessor, opts ProviderOptions) (*CachingConfigProvider, error) {
	if a == nil {
		return nil, errors.New("must provide a secret accessor")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	return &CachingConfigProvider{
		accessor: a,
		resolver: NewEnvConfigResolver(),
		opts:     &opts,
	}, nil
}

func (p *CachingConfigProvider) serviceConfigPath() string {
	return path.Join(utility.FromStringPtr(p.opts.Service), "config")
}

func (p *CachingConfigProvider) serviceOAuthPath() string {
	return path.Join(utility.FromStringPtr(p.opts.Service), "oauth")
}

// GetConfig returns the composed configuration, serving the cached entry while
// it is fresh and refetching otherwise. It never fails solely because the
// secret server is unavailable - it returns fallback configuration instead.
func (p *CachingConfigProvider) GetConfig(ctx context.Context) (*oolong.ComposedConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.entry != nil && time.Since(p.entry.FetchedAt) < *p.opts.CacheDuration {
		entry := *p.entry
		return &entry, nil
	}

	cfg, err := p.compose(ctx)
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "could not compose configuration from live secrets, serving fallback",
			"service": utility.FromStringPtr(p.opts.Service),
		}))
		return p.resolver.Resolve(), nil
	}

	p.entry = cfg

	entry := *cfg
	return &entry, nil
}

// compose issues the constituent secret reads concurrently and assembles the
// typed configuration. All reads must succeed; a single failure fails the
// whole composition so the cache is never filled with partial data.
func (p *CachingConfigProvider) compose(ctx context.Context) (*oolong.ComposedConfig, error) {
	paths := []string{
		jwtConfigPath,
		p.serviceConfigPath(),
		p.serviceOAuthPath(),
		redisConfigPath,
	}

	payloads := make(map[string]oolong.SecretPayload, len(paths))
	catcher := grip.NewBasicCatcher()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, secretPath := range paths {
		wg.Add(1)
		go func(secretPath string) {
			defer wg.Done()

			payload, err := p.accessor.GetSecret(ctx, secretPath)
			if err != nil {
				catcher.Wrapf(err, "composing configuration from '%s'", secretPath)
				return
			}

			mu.Lock()
			payloads[secretPath] = payload
			mu.Unlock()
		}(secretPath)
	}
	wg.Wait()

	if catcher.HasErrors() {
		return nil, catcher.Resolve()
	}

	jwt := payloads[jwtConfigPath]
	svc := payloads[p.serviceConfigPath()]
	oauth := payloads[p.serviceOAuthPath()]
	redis := payloads[redisConfigPath]

	return &oolong.ComposedConfig{
		JWTSecret:         payloadString(jwt, "secret", ""),
		SessionTimeout:    payloadInt(svc, "sessionTimeout", DefaultSessionTimeout),
		MaxLoginAttempts:  payloadInt(svc, "maxLoginAttempts", DefaultMaxLoginAttempts),
		LockoutDuration:   payloadInt(svc, "lockoutDuration", DefaultLockoutDuration),
		OAuthClientID:     payloadString(oauth, "clientId", ""),
		OAuthClientSecret: payloadString(oauth, "clientSecret", ""),
		RedisHost:         payloadString(redis, "host", DefaultRedisHost),
		RedisPort:         payloadInt(redis, "port", DefaultRedisPort),
		RedisPassword:     payloadString(redis, "password", ""),
		FetchedAt:         time.Now(),
		Source:            oolong.ConfigSourceLive,
	}, nil
}

// GetConfigValue returns a single field of the composed configuration by its
// key. It shares GetConfig's cache and fallback behavior - there is no
// separate network path.
func (p *CachingConfigProvider) GetConfigValue(ctx context.Context, key string) (interface{}, error) {
	cfg, err := p.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	switch key {
	case "jwtSecret":
		return cfg.JWTSecret, nil
	case "sessionTimeout":
		return cfg.SessionTimeout, nil
	case "maxLoginAttempts":
		return cfg.MaxLoginAttempts, nil
	case "lockoutDuration":
		return cfg.LockoutDuration, nil
	case "oauthClientId":
		return cfg.OAuthClientID, nil
	case "oauthClientSecret":
		return cfg.OAuthClientSecret, nil
	case "redisHost":
		return cfg.RedisHost, nil
	case "redisPort":
		return cfg.RedisPort, nil
	case "redisPassword":
		return cfg.RedisPassword, nil
	default:
		return nil, errors.Errorf("unrecognized configuration key '%s'", key)
	}
}

// Invalidate clears the cached configuration, forcing the next read to
// refetch from the secret server.
func (p *CachingConfigProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entry = nil
}

// SetSecret writes a secret through the provider's accessor and invalidates
// the cached configuration, since the written secret may be one of its
// constituents.
func (p *CachingConfigProvider) SetSecret(ctx context.Context, secretPath string, payload oolong.SecretPayload) error {
	if err := p.accessor.SetSecret(ctx, secretPath, payload); err != nil {
		return err
	}

	p.Invalidate()

	return nil
}

// payloadString reads a string field from a payload, falling back to the given
// default when the field is absent or not a string.
func payloadString(payload oolong.SecretPayload, key, def string) string {
	if val, ok := payload[key].(string); ok {
		return val
	}
	return def
}

// payloadInt reads a numeric field from a payload, tolerating the scalar
// encodings the server may hand back, and falls back to the given default when
// the field is absent or non-numeric.
func payloadInt(payload oolong.SecretPayload, key string, def int) int {
	switch val := payload[key].(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	case float64:
		return int(val)
	case int:
		return val
	}
	return def
}
