package oolong

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSecretPath(t *testing.T) {
	for tName, tCase := range map[string]struct {
		input    string
		expected string
	}{
		"PassesThroughCleanPath":    {input: "jwt/config", expected: "jwt/config"},
		"StripsLeadingSlash":        {input: "/jwt/config", expected: "jwt/config"},
		"StripsTrailingSlash":       {input: "jwt/config/", expected: "jwt/config"},
		"CollapsesRepeatedSlashes":  {input: "jwt//config", expected: "jwt/config"},
		"NormalizesBareSlashToRoot": {input: "/", expected: ""},
		"PassesThroughEmptyPath":    {input: "", expected: ""},
	} {
		t.Run(tName, func(t *testing.T) {
			assert.Equal(t, tCase.expected, NormalizeSecretPath(tCase.input))
		})
	}
}
