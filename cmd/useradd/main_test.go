package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRole(t *testing.T) {
	for _, role := range []string{"", "admin", "editor"} {
		assert.NoError(t, validateRole(role), role)
	}
	assert.EqualError(t, validateRole("owner"), `unknown role "owner"`)
}
