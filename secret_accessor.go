package oolong

import (
	"context"
	"strings"
)

// SecretPayload is a flat mapping of secret keys to scalar values as stored at
// a single logical path.
type SecretPayload map[string]interface{}

// SecretAccessor provides a common interface to read and write individual
// secrets in the versioned key-value layout rooted at a fixed mount.
type SecretAccessor interface {
	// GetSecret returns the payload stored at the given path.
	GetSecret(ctx context.Context, path string) (SecretPayload, error)
	// SetSecret stores the given payload at the given path, creating a new
	// version if one already exists.
	SetSecret(ctx context.Context, path string, payload SecretPayload) error
	// DeleteSecret deletes all versions of the secret at the given path.
	DeleteSecret(ctx context.Context, path string) error
	// ListSecrets returns the names of the entries directly under the given
	// path. A path with no children yields an empty result, not an error.
	ListSecrets(ctx context.Context, path string) ([]string, error)
	// GetSecrets fetches all of the given paths concurrently. A failure on
	// any individual path does not fail the batch - the failed path maps to
	// an empty payload. Every requested path is present in the result.
	GetSecrets(ctx context.Context, paths []string) map[string]SecretPayload
}

// NormalizeSecretPath normalizes a logical secret path by stripping leading
// and trailing slashes and collapsing repeated separators.
func NormalizeSecretPath(path string) string {
	parts := strings.Split(path, "/")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}
