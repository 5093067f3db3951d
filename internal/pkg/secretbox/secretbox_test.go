package secretbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	box, err := New("a-long-session-secret")
	require.NoError(t, err)

	sealed, err := box.Seal("eyJhbGciOi.access")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "access")

	again, err := box.Seal("eyJhbGciOi.access")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonces must differ")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.access", plain)
}

func TestOpenFailsHard(t *testing.T) {
	box, err := New("key-one")
	require.NoError(t, err)
	other, err := New("key-two")
	require.NoError(t, err)

	sealed, err := box.Seal("token")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = box.Open("token")
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = box.Open("")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrNoKey)
}
