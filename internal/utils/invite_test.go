package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteToken(t *testing.T) {
	a, err := NewInviteToken()
	require.NoError(t, err)
	b, err := NewInviteToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 random bytes, hex encoded
	assert.NotEqual(t, a, b)
}

func TestNewInviteCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewInviteCode()
		require.NoError(t, err)
		require.Len(t, code, 6, "codes keep leading zeros")
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q is not numeric", code)
		}
	}
}

func TestHashInviteValue(t *testing.T) {
	h1 := HashInviteValue("pepper", "token")
	h2 := HashInviteValue("pepper", "token")
	assert.Equal(t, h1, h2, "hashing is deterministic")
	assert.Len(t, h1, 64)

	assert.NotEqual(t, h1, HashInviteValue("other-pepper", "token"),
		"pepper participates in the hash")
	assert.NotEqual(t, h1, HashInviteValue("pepper", "other-token"))
}
