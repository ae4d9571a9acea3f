package encrypt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func TestNewBox_InvalidKey(t *testing.T) {
	_, err := NewBox("short")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewBox(strings.Repeat("zz", 32))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBox_SealOpen(t *testing.T) {
	box, err := NewBox(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("sk-live-123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "sk-live-123")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123", plain)

	again, err := box.Seal("sk-live-123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "每次加密使用新的 nonce")
}

func TestBox_OpenWithWrongKey(t *testing.T) {
	box, _ := NewBox(testKey)
	other, _ := NewBox(strings.Repeat("cd", 32))

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestBox_OpenGarbage(t *testing.T) {
	box, _ := NewBox(testKey)

	_, err := box.Open("!!!")
	assert.ErrorIs(t, err, ErrDecryptFailed)

	_, err = box.Open("YWJj")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
