package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	token := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Len(t, token, 36)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_SortsByCreation(t *testing.T) {
	gen := UUIDv7Generator{}
	seen := make(map[string]bool)
	prev := gen.Generate()
	seen[prev] = true
	for i := 0; i < 200; i++ {
		next := gen.Generate()
		require.False(t, seen[next], "duplicate token %s", next)
		assert.True(t, next > prev, "%s should sort after %s", next, prev)
		seen[next] = true
		prev = next
	}
}
