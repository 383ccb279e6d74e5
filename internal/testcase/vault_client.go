package testcase

import (
	"context"
	"testing"

	"github.com/cedar-team/oolong"
	"github.com/cedar-team/oolong/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// VaultClientTestCase represents a test case for an oolong.VaultClient.
type VaultClientTestCase func(ctx context.Context, t *testing.T, c oolong.VaultClient)

// VaultClientTests returns common test cases that an oolong.VaultClient should
// support. Paths given to the client are full logical paths under the
// key-value mount.
func VaultClientTests() map[string]VaultClientTestCase {
	return map[string]VaultClientTestCase{
		"ReadNonexistentPathReturnsNilSecret": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			secret, err := c.Read(ctx, "secret/data/"+testutil.NewSecretPath(t.Name()))
			require.NoError(t, err)
			assert.Nil(t, secret)
		},
		"WriteThenReadRoundTrips": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			secretPath := testutil.NewSecretPath(t.Name())
			payload := testutil.NewSecretPayload()

			_, err := c.Write(ctx, "secret/data/"+secretPath, map[string]interface{}{
				"data": payload,
			})
			require.NoError(t, err)

			secret, err := c.Read(ctx, "secret/data/"+secretPath)
			require.NoError(t, err)
			require.NotZero(t, secret)
			require.NotZero(t, secret.Data)
			assert.Equal(t, payload, secret.Data["data"])
		},
		"WriteThenDeleteThenReadReturnsNilSecret": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			secretPath := testutil.NewSecretPath(t.Name())

			_, err := c.Write(ctx, "secret/data/"+secretPath, map[string]interface{}{
				"data": testutil.NewSecretPayload(),
			})
			require.NoError(t, err)

			require.NoError(t, c.Delete(ctx, "secret/metadata/"+secretPath))

			secret, err := c.Read(ctx, "secret/data/"+secretPath)
			require.NoError(t, err)
			assert.Nil(t, secret)
		},
		"DeleteNonexistentPathSucceeds": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			assert.NoError(t, c.Delete(ctx, "secret/metadata/"+testutil.NewSecretPath(t.Name())))
		},
		"ListNonexistentPathReturnsNilSecret": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			secret, err := c.List(ctx, "secret/metadata/"+testutil.NewSecretPath(t.Name()))
			require.NoError(t, err)
			assert.Nil(t, secret)
		},
		"WriteThenListShowsChild": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			basePath := testutil.NewSecretPath(t.Name())

			_, err := c.Write(ctx, "secret/data/"+basePath+"/child", map[string]interface{}{
				"data": testutil.NewSecretPayload(),
			})
			require.NoError(t, err)

			secret, err := c.List(ctx, "secret/metadata/"+basePath)
			require.NoError(t, err)
			require.NotZero(t, secret)
			require.NotZero(t, secret.Data)
			assert.Contains(t, secret.Data["keys"], "child")
		},
		"RenewTokenReturnsAuth": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			secret, err := c.RenewToken(ctx)
			require.NoError(t, err)
			require.NotZero(t, secret)
			assert.NotZero(t, secret.Auth)
		},
		"HealthSucceeds": func(ctx context.Context, t *testing.T, c oolong.VaultClient) {
			assert.NoError(t, c.Health(ctx))
		},
	}
}
