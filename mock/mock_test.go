package mock

import (
	"testing"

	"github.com/cedar-team/oolong"
	"github.com/stretchr/testify/assert"
)

func TestInterfaces(t *testing.T) {
	assert.Implements(t, (*oolong.VaultClient)(nil), &VaultClient{})
}
