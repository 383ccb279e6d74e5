package oolong

import (
	"context"

	"github.com/hashicorp/vault/api"
)

// VaultClient provides a common interface to interact with a client backed by
// the secret server's HTTP API. Implementations must attach the bearer
// credential and optional namespace to every authenticated request and bound
// each round trip with a timeout. Implementations must not retry - callers
// decide their own retry and fallback policy.
type VaultClient interface {
	// Read reads the secret at the given logical path. It returns a nil
	// secret without an error when nothing exists at the path.
	Read(ctx context.Context, path string) (*api.Secret, error)
	// Write writes the given data to the given logical path.
	Write(ctx context.Context, path string, data map[string]interface{}) (*api.Secret, error)
	// Delete deletes the secret at the given logical path.
	Delete(ctx context.Context, path string) error
	// List lists the entries directly under the given logical path. It
	// returns a nil secret without an error when the path has no children.
	List(ctx context.Context, path string) (*api.Secret, error)
	// RenewToken renews the client's own bearer credential before its
	// expiry.
	RenewToken(ctx context.Context) (*api.Secret, error)
	// Health checks that the secret server is reachable and unsealed.
	Health(ctx context.Context) error
	// Close closes the client and cleans up its resources. Implementations
	// should ensure that this is idempotent.
	Close(ctx context.Context) error
}
