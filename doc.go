/*
Package oolong provides interfaces to fetch, cache, and gracefully degrade
access to externally-stored secrets used to configure dependent services.
Secrets live in a versioned key-value layout on an external secret server and
are composed into typed configuration that a service consumes at startup.

The ConfigProvider interface provides an abstraction to read composed
configuration without needing a network round trip for every config access.
When the live secret source is unavailable, providers degrade to
environment-derived defaults rather than failing, so a dependent service never
refuses to start solely because the secret server is down.

The SecretAccessor interface wraps the server's versioned key-value layout for
individual secret reads and writes. The VaultClient interface provides a
convenience wrapper around the server's HTTP API. If the higher-level
interfaces do not fulfill your needs, you can make calls against the API
directly instead.
*/
package oolong
