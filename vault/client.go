package vault

import (
	"context"
	"net/http"

	"github.com/cedar-team/oolong"
	"github.com/cedar-team/oolong/vaultutil"
	"github.com/evergreen-ci/utility"
	"github.com/hashicorp/vault/api"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// BasicVaultClient provides a VaultClient implementation that wraps the secret
// server's HTTP API. Every request carries the bearer credential and optional
// namespace and is bounded by the configured timeout. The client never retries
// - callers own their retry and fallback policy.
type BasicVaultClient struct {
	client *api.Client
	opts   *vaultutil.ClientOptions
}

// NewBasicVaultClient creates a new client to the secret server from the given
// options.
func NewBasicVaultClient(opts vaultutil.ClientOptions) (*BasicVaultClient, error) {
	c := &BasicVaultClient{
		opts: &opts,
	}
	if err := c.setup(); err != nil {
		return nil, errors.Wrap(err, "setting up client")
	}

	return c, nil
}

func (c *BasicVaultClient) setup() error {
	if err := c.opts.Validate(); err != nil {
		return errors.Wrap(err, "invalid options")
	}

	if c.client != nil {
		return nil
	}

	client, err := c.opts.GetClient()
	if err != nil {
		return errors.Wrap(err, "creating API client")
	}

	c.client = client

	return nil
}

// Read reads the secret at the given logical path. A path with no secret
// yields a nil secret, not an error.
func (c *BasicVaultClient) Read(ctx context.Context, path string) (*api.Secret, error) {
	s, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, c.makeTransportError("read", path, err)
	}
	return s, nil
}

// Write writes the given data to the given logical path.
func (c *BasicVaultClient) Write(ctx context.Context, path string, data map[string]interface{}) (*api.Secret, error) {
	s, err := c.client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, c.makeTransportError("write", path, err)
	}
	return s, nil
}

// Delete deletes the secret at the given logical path.
func (c *BasicVaultClient) Delete(ctx context.Context, path string) error {
	if _, err := c.client.Logical().DeleteWithContext(ctx, path); err != nil {
		return c.makeTransportError("delete", path, err)
	}
	return nil
}

// List lists the entries directly under the given logical path. A path with no
// children yields a nil secret, not an error.
func (c *BasicVaultClient) List(ctx context.Context, path string) (*api.Secret, error) {
	s, err := c.client.Logical().ListWithContext(ctx, path)
	if err != nil {
		return nil, c.makeTransportError("list", path, err)
	}
	return s, nil
}

// RenewToken renews the client's own bearer credential before its expiry.
func (c *BasicVaultClient) RenewToken(ctx context.Context) (*api.Secret, error) {
	s, err := c.client.Auth().Token().RenewSelfWithContext(ctx, 0)
	if err != nil {
		return nil, c.makeTransportError("renew-token", "auth/token/renew-self", err)
	}
	return s, nil
}

// Health checks that the secret server is reachable and unsealed. The check is
// bounded by the health check timeout, which is shorter than the general
// request timeout.
func (c *BasicVaultClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.GetHealthCheckTimeout())
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return c.makeTransportError("health", "sys/health", err)
	}
	if !health.Initialized || health.Sealed {
		return oolong.NewTransportError("health", "sys/health", http.StatusServiceUnavailable, errors.New("secret server is sealed or uninitialized"))
	}
	return nil
}

// Close closes the client and cleans up its resources.
func (c *BasicVaultClient) Close(ctx context.Context) error {
	c.opts.Close()
	return nil
}

// makeTransportError logs the failing request's target and status and converts
// the error into a TransportError. The bearer credential is never logged.
func (c *BasicVaultClient) makeTransportError(op, path string, err error) error {
	status := 0
	var respErr *api.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.StatusCode
	}

	grip.Debug(message.WrapError(err, message.Fields{
		"message": "request to secret server failed",
		"op":      op,
		"path":    path,
		"status":  status,
	}))

	return oolong.NewTransportError(op, path, status, err)
}

// WaitUntilHealthy polls the server's health endpoint until it reports
// unsealed and reachable, retrying per the given options. This is a
// caller-side convenience - the client itself never retries.
func WaitUntilHealthy(ctx context.Context, c oolong.VaultClient, opts utility.RetryOptions) error {
	return errors.Wrap(utility.Retry(ctx, func() (bool, error) {
		if err := c.Health(ctx); err != nil {
			return true, err
		}
		return false, nil
	}, opts), "waiting for secret server to become healthy")
}
