package testutil

import (
	"path"

	"github.com/evergreen-ci/utility"
)

const projectName = "oolong"

// NewSecretPath creates a new test secret path with a common prefix, the given
// name, and a random string, so concurrent tests sharing a store never
// collide.
func NewSecretPath(name string) string {
	return path.Join(projectName, name, utility.RandomString())
}

// NewSecretPayload returns a small distinct payload for round-trip tests.
func NewSecretPayload() map[string]interface{} {
	return map[string]interface{}{
		"username": "app",
		"password": utility.RandomString(),
	}
}
