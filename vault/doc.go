/*
Package vault provides implementations of the oolong interfaces backed by a
secret server speaking the versioned key-value HTTP API.

CachingConfigProvider provides an abstraction to read composed configuration
without needing to make direct calls to the server for frequently-used values,
degrading to environment-derived defaults when the server is unavailable.

The BasicVaultClient provides a convenience wrapper around the server's HTTP
API. If the higher-level interfaces do not fulfill your needs, you can make
calls directly against the API instead.
*/
package vault
