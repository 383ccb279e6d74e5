package testcase

import (
	"context"
	"testing"

	"github.com/cedar-team/oolong"
	"github.com/cedar-team/oolong/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SecretAccessorTestCase represents a test case for an oolong.SecretAccessor.
type SecretAccessorTestCase func(ctx context.Context, t *testing.T, a oolong.SecretAccessor)

// SecretAccessorTests returns common test cases that an oolong.SecretAccessor
// should support.
func SecretAccessorTests() map[string]SecretAccessorTestCase {
	return map[string]SecretAccessorTestCase{
		"SetThenGetRoundTrips": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			secretPath := testutil.NewSecretPath(t.Name())
			payload := oolong.SecretPayload(testutil.NewSecretPayload())

			require.NoError(t, a.SetSecret(ctx, secretPath, payload))

			found, err := a.GetSecret(ctx, secretPath)
			require.NoError(t, err)
			assert.Equal(t, payload, found)
		},
		"GetFailsWithNonexistentSecret": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			payload, err := a.GetSecret(ctx, testutil.NewSecretPath(t.Name()))
			assert.Error(t, err)
			assert.True(t, oolong.IsSecretNotFoundError(err))
			assert.Zero(t, payload)
		},
		"SetOverwritesExistingValue": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			secretPath := testutil.NewSecretPath(t.Name())

			require.NoError(t, a.SetSecret(ctx, secretPath, oolong.SecretPayload{"key": "old"}))
			require.NoError(t, a.SetSecret(ctx, secretPath, oolong.SecretPayload{"key": "new"}))

			found, err := a.GetSecret(ctx, secretPath)
			require.NoError(t, err)
			assert.Equal(t, oolong.SecretPayload{"key": "new"}, found)
		},
		"NormalizesLeadingSlash": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			secretPath := testutil.NewSecretPath(t.Name())
			payload := oolong.SecretPayload(testutil.NewSecretPayload())

			require.NoError(t, a.SetSecret(ctx, "/"+secretPath, payload))

			found, err := a.GetSecret(ctx, secretPath)
			require.NoError(t, err)
			assert.Equal(t, payload, found)
		},
		"DeleteRemovesSecret": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			secretPath := testutil.NewSecretPath(t.Name())

			require.NoError(t, a.SetSecret(ctx, secretPath, oolong.SecretPayload(testutil.NewSecretPayload())))
			require.NoError(t, a.DeleteSecret(ctx, secretPath))

			_, err := a.GetSecret(ctx, secretPath)
			assert.True(t, oolong.IsSecretNotFoundError(err))
		},
		"DeleteNonexistentSecretSucceeds": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			assert.NoError(t, a.DeleteSecret(ctx, testutil.NewSecretPath(t.Name())))
		},
		"ListReturnsEmptyForNoChildren": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			names, err := a.ListSecrets(ctx, testutil.NewSecretPath(t.Name()))
			require.NoError(t, err)
			assert.Empty(t, names)
		},
		"ListReturnsChildren": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			basePath := testutil.NewSecretPath(t.Name())

			require.NoError(t, a.SetSecret(ctx, basePath+"/redis", oolong.SecretPayload{"host": "localhost"}))
			require.NoError(t, a.SetSecret(ctx, basePath+"/jwt", oolong.SecretPayload{"secret": "s3cr3t"}))

			names, err := a.ListSecrets(ctx, basePath)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"jwt", "redis"}, names)
		},
		"GetSecretsFetchesAllPaths": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			first := testutil.NewSecretPath(t.Name())
			second := testutil.NewSecretPath(t.Name())

			require.NoError(t, a.SetSecret(ctx, first, oolong.SecretPayload{"key": "one"}))
			require.NoError(t, a.SetSecret(ctx, second, oolong.SecretPayload{"key": "two"}))

			payloads := a.GetSecrets(ctx, []string{first, second})
			require.Len(t, payloads, 2)
			assert.Equal(t, oolong.SecretPayload{"key": "one"}, payloads[first])
			assert.Equal(t, oolong.SecretPayload{"key": "two"}, payloads[second])
		},
		"GetSecretsSubstitutesEmptyPayloadForFailedPath": func(ctx context.Context, t *testing.T, a oolong.SecretAccessor) {
			existing := testutil.NewSecretPath(t.Name())
			missing := testutil.NewSecretPath(t.Name())

			require.NoError(t, a.SetSecret(ctx, existing, oolong.SecretPayload{"key": "value"}))

			payloads := a.GetSecrets(ctx, []string{existing, missing})
			require.Len(t, payloads, 2)
			assert.Equal(t, oolong.SecretPayload{"key": "value"}, payloads[existing])
			require.Contains(t, payloads, missing)
			assert.Empty(t, payloads[missing])
		},
	}
}
