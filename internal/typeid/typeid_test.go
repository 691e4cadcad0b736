package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesPrefix(t *testing.T) {
	id := NewShareID()
	assert.True(t, strings.HasPrefix(id, PrefixShare+"_"), id)
	require.NoError(t, Validate(id, PrefixShare))
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	assert.Error(t, Validate(NewUserID(), PrefixShare))
	assert.Error(t, Validate("not-a-typeid", PrefixUser))
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
