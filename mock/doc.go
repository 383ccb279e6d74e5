/*
Package mock provides mock implementations of interfaces for testing purposes.

The VaultClient can be used for running tests without relying on a secret
server to be set up and unsealed.
*/
package mock
