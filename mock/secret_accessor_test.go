package mock

import (
	"context"
	"testing"
	"time"

	"github.com/cedar-team/oolong"
	"github.com/cedar-team/oolong/internal/testcase"
	"github.com/cedar-team/oolong/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicSecretAccessorWithMockClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for tName, tCase := range testcase.SecretAccessorTests() {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
			defer tcancel()

			defer ResetGlobalSecretStore()

			c := &VaultClient{}
			a, err := vault.NewBasicSecretAccessor(c, "")
			require.NoError(t, err)

			tCase(tctx, t, a)
		})
	}
}

func TestCachingConfigProviderWithMockClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const service = "identity"

	seedComposedSecrets := func() {
		GlobalSecretStore["jwt/config"] = StoredSecret{
			Path: "jwt/config",
			Data: map[string]interface{}{"secret": "jwt-signing-secret"},
		}
		GlobalSecretStore[service+"/config"] = StoredSecret{
			Path: service + "/config",
			Data: map[string]interface{}{"sessionTimeout": "3600"},
		}
		GlobalSecretStore[service+"/oauth"] = StoredSecret{
			Path: service + "/oauth",
			Data: map[string]interface{}{"clientId": "client-id", "clientSecret": "client-secret"},
		}
		GlobalSecretStore["redis/config"] = StoredSecret{
			Path: "redis/config",
			Data: map[string]interface{}{"host": "cache.internal", "port": "6380"},
		}
	}

	for tName, tCase := range map[string]func(ctx context.Context, t *testing.T, p *vault.CachingConfigProvider){
		"ComposesLiveConfigFromMockStore": func(ctx context.Context, t *testing.T, p *vault.CachingConfigProvider) {
			seedComposedSecrets()

			cfg, err := p.GetConfig(ctx)
			require.NoError(t, err)
			require.NotZero(t, cfg)
			assert.Equal(t, oolong.ConfigSourceLive, cfg.Source)
			assert.Equal(t, "jwt-signing-secret", cfg.JWTSecret)
			assert.Equal(t, 3600, cfg.SessionTimeout)
			assert.Equal(t, "cache.internal", cfg.RedisHost)
			assert.Equal(t, 6380, cfg.RedisPort)
		},
		"FallsBackWhenAConstituentSecretIsMissing": func(ctx context.Context, t *testing.T, p *vault.CachingConfigProvider) {
			t.Setenv(vault.RedisPortEnvVar, "")

			seedComposedSecrets()
			delete(GlobalSecretStore, "redis/config")

			cfg, err := p.GetConfig(ctx)
			require.NoError(t, err)
			require.NotZero(t, cfg)
			assert.Equal(t, oolong.ConfigSourceFallback, cfg.Source)
			assert.Equal(t, vault.DefaultRedisPort, cfg.RedisPort)
		},
	} {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
			defer tcancel()

			defer ResetGlobalSecretStore()

			a, err := vault.NewBasicSecretAccessor(&VaultClient{}, "")
			require.NoError(t, err)

			p, err := vault.NewCachingConfigProvider(a, *vault.NewProviderOptions().SetService(service))
			require.NoError(t, err)

			tCase(tctx, t, p)
		})
	}
}
