package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("devopsai")
	require.NoError(t, err)
	assert.NotEqual(t, "devopsai", hash)

	assert.True(t, h.Check("devopsai", hash))
	assert.False(t, h.Check("devopsAI", hash))
	assert.False(t, h.Check("", hash))
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Check("same", first))
	assert.True(t, h.Check("same", second))
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestBcryptHasher_CheckGarbageHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	assert.False(t, h.Check("pw", "not-a-bcrypt-hash"))
}

func TestBcryptHasher_LongPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	long := strings.Repeat("x", 200)

	hash, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Check(long, hash))

	// Passwords sharing the first 72 bytes are still distinct.
	assert.False(t, h.Check(long[:72], hash))
	assert.False(t, h.Check(long+"y", hash))
}
