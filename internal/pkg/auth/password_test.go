package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hashed)

	assert.True(t, CheckPassword(hashed, "secret123"))
	assert.False(t, CheckPassword(hashed, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "secret123"))
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	require.NoError(t, err)
	second, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "each hash gets its own salt")
}
