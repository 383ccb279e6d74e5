package mock

import (
	"context"
	"testing"
	"time"

	"github.com/cedar-team/oolong/internal/testcase"
	"github.com/cedar-team/oolong/internal/testutil"
	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for tName, tCase := range testcase.VaultClientTests() {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
			defer tcancel()

			defer ResetGlobalSecretStore()

			c := &VaultClient{}
			defer func() {
				assert.NoError(t, c.Close(tctx))
			}()

			tCase(tctx, t, c)
		})
	}

	for tName, tCase := range map[string]func(ctx context.Context, t *testing.T, c *VaultClient){
		"ReadSavesInput": func(ctx context.Context, t *testing.T, c *VaultClient) {
			secretPath := "secret/data/" + testutil.NewSecretPath(t.Name())
			_, err := c.Read(ctx, secretPath)
			require.NoError(t, err)
			require.NotZero(t, c.ReadInput)
			assert.Equal(t, secretPath, *c.ReadInput)
		},
		"ReadHonorsOutputOverride": func(ctx context.Context, t *testing.T, c *VaultClient) {
			expected := &api.Secret{Data: map[string]interface{}{"data": map[string]interface{}{"key": "value"}}}
			c.ReadOutput = expected

			secret, err := c.Read(ctx, "secret/data/"+testutil.NewSecretPath(t.Name()))
			require.NoError(t, err)
			assert.Equal(t, expected, secret)
		},
		"ReadHonorsErrorOverride": func(ctx context.Context, t *testing.T, c *VaultClient) {
			c.ReadError = errors.New("fake read error")

			secret, err := c.Read(ctx, "secret/data/"+testutil.NewSecretPath(t.Name()))
			assert.Error(t, err)
			assert.Zero(t, secret)
		},
		"WriteSavesPathAndData": func(ctx context.Context, t *testing.T, c *VaultClient) {
			secretPath := "secret/data/" + testutil.NewSecretPath(t.Name())
			data := map[string]interface{}{"data": testutil.NewSecretPayload()}

			_, err := c.Write(ctx, secretPath, data)
			require.NoError(t, err)
			require.NotZero(t, c.WritePathInput)
			assert.Equal(t, secretPath, *c.WritePathInput)
			assert.Equal(t, data, c.WriteDataInput)
		},
		"WriteFailsWithoutNestedData": func(ctx context.Context, t *testing.T, c *VaultClient) {
			_, err := c.Write(ctx, "secret/data/"+testutil.NewSecretPath(t.Name()), map[string]interface{}{})
			assert.Error(t, err)
		},
		"WritePreservesCreationTimestampAcrossUpdates": func(ctx context.Context, t *testing.T, c *VaultClient) {
			secretPath := testutil.NewSecretPath(t.Name())

			_, err := c.Write(ctx, "secret/data/"+secretPath, map[string]interface{}{"data": map[string]interface{}{"key": "old"}})
			require.NoError(t, err)
			created := GlobalSecretStore[secretPath].Created

			_, err = c.Write(ctx, "secret/data/"+secretPath, map[string]interface{}{"data": map[string]interface{}{"key": "new"}})
			require.NoError(t, err)
			assert.Equal(t, created, GlobalSecretStore[secretPath].Created)
		},
		"RenewTokenCountsCalls": func(ctx context.Context, t *testing.T, c *VaultClient) {
			_, err := c.RenewToken(ctx)
			require.NoError(t, err)
			_, err = c.RenewToken(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, c.RenewTokenCalls)
		},
		"HealthHonorsErrorOverride": func(ctx context.Context, t *testing.T, c *VaultClient) {
			c.HealthError = errors.New("fake health error")
			assert.Error(t, c.Health(ctx))
			assert.Equal(t, 1, c.HealthCalls)
		},
	} {
		t.Run(tName, func(t *testing.T) {
			tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
			defer tcancel()

			defer ResetGlobalSecretStore()

			tCase(tctx, t, &VaultClient{})
		})
	}
}

func TestGlobalSecretStore(t *testing.T) {
	defer ResetGlobalSecretStore()

	GlobalSecretStore["some/path"] = StoredSecret{
		Path: "some/path",
		Data: map[string]interface{}{"key": "value"},
	}
	require.Len(t, GlobalSecretStore, 1)

	ResetGlobalSecretStore()
	assert.Empty(t, GlobalSecretStore)
}
