package vaultutil

import (
	"net/http"
	"os"
	"time"

	"github.com/evergreen-ci/utility"
	"github.com/hashicorp/vault/api"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

const (
	// DefaultRequestTimeout bounds the total round trip of a general API
	// request.
	DefaultRequestTimeout = 5 * time.Second
	// DefaultHealthCheckTimeout bounds the round trip of a health check,
	// which callers tend to poll and therefore needs a tighter bound than
	// general requests.
	DefaultHealthCheckTimeout = 3 * time.Second
)

// Environment variables consulted when bootstrapping client options.
const (
	AddressEnvVar   = "VAULT_ADDR"
	TokenEnvVar     = "VAULT_TOKEN"
	NamespaceEnvVar = "VAULT_NAMESPACE"
)

// ClientOptions represent secret server client options such as the server
// address, the bearer credential, and request bounds.
type ClientOptions struct {
	// Address is the base URL of the secret server.
	Address *string
	// Token is the bearer credential attached to every authenticated
	// request. The credential is owned wholesale by the client and is never
	// persisted.
	Token *string
	// Namespace is an optional namespace attached to every request.
	Namespace *string
	// RequestTimeout bounds the total round trip of each API request. It
	// defaults to DefaultRequestTimeout.
	RequestTimeout *time.Duration
	// HealthCheckTimeout bounds the round trip of each health check. It
	// defaults to DefaultHealthCheckTimeout.
	HealthCheckTimeout *time.Duration
	// HTTPClient is the HTTP client to use to make requests.
	HTTPClient *http.Client

	client *api.Client

	ownsHTTPClient bool
}

// NewClientOptions returns new unconfigured client options.
func NewClientOptions() *ClientOptions {
	return &ClientOptions{}
}

// NewClientOptionsFromEnv returns client options seeded from the standard
// environment variables for the server address, bearer credential, and
// namespace.
func NewClientOptionsFromEnv() *ClientOptions {
	o := NewClientOptions()
	if addr := os.Getenv(AddressEnvVar); addr != "" {
		o.SetAddress(addr)
	}
	if token := os.Getenv(TokenEnvVar); token != "" {
		o.SetToken(token)
	}
	if ns := os.Getenv(NamespaceEnvVar); ns != "" {
		o.SetNamespace(ns)
	}
	return o
}

// SetAddress sets the base URL of the secret server.
func (o *ClientOptions) SetAddress(addr string) *ClientOptions {
	o.Address = &addr
	return o
}

// SetToken sets the bearer credential.
func (o *ClientOptions) SetToken(token string) *ClientOptions {
	o.Token = &token
	return o
}

// SetNamespace sets the optional namespace attached to every request.
func (o *ClientOptions) SetNamespace(ns string) *ClientOptions {
	o.Namespace = &ns
	return o
}

// SetRequestTimeout sets the bound on each API request's round trip.
func (o *ClientOptions) SetRequestTimeout(timeout time.Duration) *ClientOptions {
	o.RequestTimeout = &timeout
	return o
}

// SetHealthCheckTimeout sets the bound on each health check's round trip.
func (o *ClientOptions) SetHealthCheckTimeout(timeout time.Duration) *ClientOptions {
	o.HealthCheckTimeout = &timeout
	return o
}

// SetHTTPClient sets the HTTP client to use.
func (o *ClientOptions) SetHTTPClient(hc *http.Client) *ClientOptions {
	o.HTTPClient = hc
	return o
}

// Validate checks that all required fields are given and sets defaults for
// unspecified options.
func (o *ClientOptions) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(utility.FromStringPtr(o.Address) == "", "must provide the secret server address")
	catcher.NewWhen(utility.FromStringPtr(o.Token) == "", "must provide a bearer credential")

	if catcher.HasErrors() {
		return catcher.Resolve()
	}

	if o.HTTPClient == nil {
		o.HTTPClient = utility.GetHTTPClient()
		o.ownsHTTPClient = true
	}

	if o.RequestTimeout == nil {
		timeout := DefaultRequestTimeout
		o.RequestTimeout = &timeout
	}
	if o.HealthCheckTimeout == nil {
		timeout := DefaultHealthCheckTimeout
		o.HealthCheckTimeout = &timeout
	}

	return nil
}

// GetClient ensures that the underlying API client is initialized and returns
// it. The client attaches the bearer credential and namespace to every
// request.
func (o *ClientOptions) GetClient() (*api.Client, error) {
	if o.client != nil {
		return o.client, nil
	}

	config := api.DefaultConfig()
	config.Address = utility.FromStringPtr(o.Address)
	config.Timeout = *o.RequestTimeout
	config.HttpClient = o.HTTPClient
	// The default config retries server errors. Retry and fallback policy
	// belongs to callers, so the transport must surface each failure exactly
	// once.
	config.MaxRetries = 0

	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "creating API client")
	}

	client.SetToken(utility.FromStringPtr(o.Token))
	if ns := utility.FromStringPtr(o.Namespace); ns != "" {
		client.SetNamespace(ns)
	}

	o.client = client

	return o.client, nil
}

// GetHealthCheckTimeout returns the bound on each health check's round trip.
func (o *ClientOptions) GetHealthCheckTimeout() time.Duration {
	if o.HealthCheckTimeout == nil {
		return DefaultHealthCheckTimeout
	}
	return *o.HealthCheckTimeout
}

// Close cleans up the HTTP client if it is owned by these options.
func (o *ClientOptions) Close() {
	if o.ownsHTTPClient {
		utility.PutHTTPClient(o.HTTPClient)
		o.HTTPClient = nil
		o.ownsHTTPClient = false
	}
}
