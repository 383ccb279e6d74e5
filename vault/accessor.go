package vault

import (
	"context"
	"path"
	"sync"

	"github.com/cedar-team/oolong"
	"github.com/hashicorp/vault/api"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// DefaultMount is the fixed mount name under which all key-value paths are
// rooted.
const DefaultMount = "secret"

// Versioned key-value layout segments under the mount. Reads and writes go
// through data; deletes and lists go through metadata, which addresses all
// versions at once.
const (
	dataSegment     = "data"
	metadataSegment = "metadata"
)

// BasicSecretAccessor provides a SecretAccessor implementation over the
// versioned key-value layout exposed by a VaultClient.
type BasicSecretAccessor struct {
	client oolong.VaultClient
	mount  string
}

// NewBasicSecretAccessor creates a new accessor over the given client's
// key-value layout. An empty mount defaults to DefaultMount.
func NewBasicSecretAccessor(c oolong.VaultClient, mount string) (*BasicSecretAccessor, error) {
	if c == nil {
		return nil, errors.New("must provide a client")
	}
	if mount == "" {
		mount = DefaultMount
	}
	return &BasicSecretAccessor{
		client: c,
		mount:  oolong.NormalizeSecretPath(mount),
	}, nil
}

func (a *BasicSecretAccessor) dataPath(p string) string {
	return path.Join(a.mount, dataSegment, oolong.NormalizeSecretPath(p))
}

func (a *BasicSecretAccessor) metadataPath(p string) string {
	return path.Join(a.mount, metadataSegment, oolong.NormalizeSecretPath(p))
}

// GetSecret returns the payload stored at the given path, unwrapping the
// versioned key-value response envelope.
func (a *BasicSecretAccessor) GetSecret(ctx context.Context, p string) (oolong.SecretPayload, error) {
	secret, err := a.client.Read(ctx, a.dataPath(p))
	if err != nil {
		return nil, oolong.NewSecretReadError(p, err)
	}

	payload := unwrapPayload(secret)
	if payload == nil {
		return nil, oolong.NewSecretNotFoundError(p)
	}

	return payload, nil
}

// SetSecret stores the given payload at the given path, creating a new version
// if one already exists.
func (a *BasicSecretAccessor) SetSecret(ctx context.Context, p string, payload oolong.SecretPayload) error {
	if _, err := a.client.Write(ctx, a.dataPath(p), map[string]interface{}{
		dataSegment: map[string]interface{}(payload),
	}); err != nil {
		return oolong.NewSecretWriteError(p, err)
	}
	return nil
}

// DeleteSecret deletes all versions of the secret at the given path.
func (a *BasicSecretAccessor) DeleteSecret(ctx context.Context, p string) error {
	if err := a.client.Delete(ctx, a.metadataPath(p)); err != nil {
		return oolong.NewSecretDeleteError(p, err)
	}
	return nil
}

// ListSecrets returns the names of the entries directly under the given path.
// A path with no children yields an empty result, not an error.
func (a *BasicSecretAccessor) ListSecrets(ctx context.Context, p string) ([]string, error) {
	secret, err := a.client.List(ctx, a.metadataPath(p))
	if err != nil {
		return nil, oolong.NewSecretReadError(p, err)
	}

	return unwrapKeys(secret), nil
}

// GetSecrets fetches all of the given paths concurrently. A failure on any
// individual path does not fail the batch - the failed path maps to an empty
// payload and the failure is logged as a warning. All requests are awaited
// regardless of individual outcome.
func (a *BasicSecretAccessor) GetSecrets(ctx context.Context, paths []string) map[string]oolong.SecretPayload {
	payloads := make(map[string]oolong.SecretPayload, len(paths))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()

			payload, err := a.GetSecret(ctx, p)
			if err != nil {
				grip.Warning(message.WrapError(err, message.Fields{
					"message": "could not fetch secret in batch, substituting empty payload",
					"path":    p,
				}))
				payload = oolong.SecretPayload{}
			}

			mu.Lock()
			payloads[p] = payload
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	return payloads
}

// unwrapPayload extracts the inner payload from the double-nested versioned
// key-value read envelope. It returns nil when the envelope holds no payload,
// such as for a nonexistent path or a deleted version.
func unwrapPayload(secret *api.Secret) oolong.SecretPayload {
	if secret == nil {
		return nil
	}
	raw, ok := secret.Data[dataSegment]
	if !ok || raw == nil {
		return nil
	}
	data, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	return oolong.SecretPayload(data)
}

// unwrapKeys extracts child entry names from a list response envelope.
func unwrapKeys(secret *api.Secret) []string {
	names := []string{}
	if secret == nil {
		return names
	}
	raw, ok := secret.Data["keys"]
	if !ok {
		return names
	}
	keys, ok := raw.([]interface{})
	if !ok {
		return names
	}
	for _, k := range keys {
		if name, ok := k.(string); ok {
			names = append(names, name)
		}
	}
	return names
}
