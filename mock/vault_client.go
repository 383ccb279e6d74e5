package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

// StoredSecret is a representation of a secret kept in the global secret
// store.
type StoredSecret struct {
	// Path is the logical path under the key-value mount, without the data
	// or metadata segment.
	Path        string
	Data        map[string]interface{}
	Created     time.Time
	LastUpdated time.Time
}

// GlobalSecretStore is a global secret store that provides a simplified
// in-memory implementation of the secret server's versioned key-value layout.
// This can be used indirectly with the VaultClient to access and modify
// secrets, or used directly.
var GlobalSecretStore map[string]StoredSecret

// globalStoreMu guards GlobalSecretStore and the client introspection fields
// against the concurrent batch reads that higher layers perform.
var globalStoreMu sync.Mutex

func init() {
	ResetGlobalSecretStore()
}

// ResetGlobalSecretStore resets the global fake secret store to an initialized
// but clean state.
func ResetGlobalSecretStore() {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()
	GlobalSecretStore = map[string]StoredSecret{}
}

// VaultClient provides a mock implementation of an oolong.VaultClient. This
// makes it possible to introspect on inputs to the client and control the
// client's output. It provides some default implementations where possible. By
// default, it will issue operations against the fake GlobalSecretStore.
type VaultClient struct {
	ReadInput  *string
	ReadOutput *api.Secret
	ReadError  error

	WritePathInput *string
	WriteDataInput map[string]interface{}
	WriteOutput    *api.Secret
	WriteError     error

	DeleteInput *string
	DeleteError error

	ListInput  *string
	ListOutput *api.Secret
	ListError  error

	RenewTokenCalls  int
	RenewTokenOutput *api.Secret
	RenewTokenError  error

	HealthCalls int
	HealthError error

	CloseError error
}

// splitKVPath splits a full logical path such as "secret/data/jwt/config"
// into its layout segment ("data" or "metadata") and the secret path under
// the mount.
func splitKVPath(p string) (segment, secretPath string, ok bool) {
	parts := strings.SplitN(strings.TrimPrefix(p, "/"), "/", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func copyData(data map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return copied
}

// Read saves the input path and returns the stored secret wrapped in the
// versioned key-value envelope. The mock output can be customized. By default,
// it returns a nil secret without an error when nothing exists at the path,
// matching the real server.
func (c *VaultClient) Read(ctx context.Context, path string) (*api.Secret, error) {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	c.ReadInput = &path

	if c.ReadOutput != nil || c.ReadError != nil {
		return c.ReadOutput, c.ReadError
	}

	segment, secretPath, ok := splitKVPath(path)
	if !ok || segment != "data" {
		return nil, errors.Errorf("unsupported read path '%s'", path)
	}

	s, ok := GlobalSecretStore[secretPath]
	if !ok {
		return nil, nil
	}

	return &api.Secret{
		Data: map[string]interface{}{
			"data": copyData(s.Data),
			"metadata": map[string]interface{}{
				"created_time": s.Created,
			},
		},
	}, nil
}

// Write saves the input path and data and stores the payload nested under the
// input's data key. The mock output can be customized. By default, it stores
// the payload in the global secret store.
func (c *VaultClient) Write(ctx context.Context, path string, data map[string]interface{}) (*api.Secret, error) {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	c.WritePathInput = &path
	c.WriteDataInput = data

	if c.WriteOutput != nil || c.WriteError != nil {
		return c.WriteOutput, c.WriteError
	}

	segment, secretPath, ok := splitKVPath(path)
	if !ok || segment != "data" {
		return nil, errors.Errorf("unsupported write path '%s'", path)
	}

	payload, ok := data["data"].(map[string]interface{})
	if !ok {
		return nil, errors.New("missing data")
	}

	now := time.Now()
	stored := StoredSecret{
		Path:        secretPath,
		Data:        copyData(payload),
		Created:     now,
		LastUpdated: now,
	}
	if existing, ok := GlobalSecretStore[secretPath]; ok {
		stored.Created = existing.Created
	}
	GlobalSecretStore[secretPath] = stored

	return &api.Secret{
		Data: map[string]interface{}{"version": 1},
	}, nil
}

// Delete saves the input path and removes the stored secret. The mock output
// can be customized. By default, deleting a nonexistent path succeeds,
// matching the real server.
func (c *VaultClient) Delete(ctx context.Context, path string) error {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	c.DeleteInput = &path

	if c.DeleteError != nil {
		return c.DeleteError
	}

	_, secretPath, ok := splitKVPath(path)
	if !ok {
		return errors.Errorf("unsupported delete path '%s'", path)
	}

	delete(GlobalSecretStore, secretPath)

	return nil
}

// List saves the input path and returns the names of the entries directly
// under it, with a trailing slash on entries that have deeper descendants,
// matching the real server's list behavior. The mock output can be
// customized. By default, a path with no children yields a nil secret without
// an error.
func (c *VaultClient) List(ctx context.Context, path string) (*api.Secret, error) {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	c.ListInput = &path

	if c.ListOutput != nil || c.ListError != nil {
		return c.ListOutput, c.ListError
	}

	_, secretPath, ok := splitKVPath(path)
	if !ok {
		return nil, errors.Errorf("unsupported list path '%s'", path)
	}

	prefix := secretPath
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	seen := map[string]struct{}{}
	for p := range GlobalSecretStore {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			seen[rest[:idx+1]] = struct{}{}
		} else {
			seen[rest] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]interface{}, 0, len(names))
	for _, name := range names {
		keys = append(keys, name)
	}

	return &api.Secret{
		Data: map[string]interface{}{"keys": keys},
	}, nil
}

// RenewToken counts the renewal attempt. The mock output can be customized. By
// default, it returns a renewed credential lease.
func (c *VaultClient) RenewToken(ctx context.Context) (*api.Secret, error) {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	c.RenewTokenCalls++

	if c.RenewTokenOutput != nil || c.RenewTokenError != nil {
		return c.RenewTokenOutput, c.RenewTokenError
	}

	return &api.Secret{
		Auth: &api.SecretAuth{
			ClientToken:   "renewed-token",
			LeaseDuration: 3600,
			Renewable:     true,
		},
	}, nil
}

// Health counts the health check. The mock output can be customized. By
// default, the server reports healthy.
func (c *VaultClient) Health(ctx context.Context) error {
	globalStoreMu.Lock()
	defer globalStoreMu.Unlock()

	c.HealthCalls++

	return c.HealthError
}

// Close closes the mock client. The mock output can be customized.
func (c *VaultClient) Close(ctx context.Context) error {
	return c.CloseError
}
