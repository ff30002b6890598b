package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCipherKey = bytes.Repeat([]byte{0x42}, 32)

func TestNewTokenCipher_KeyEncodings(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"hex", hex.EncodeToString(testCipherKey), false},
		{"base64", base64.StdEncoding.EncodeToString(testCipherKey), false},
		{"raw url base64", base64.RawURLEncoding.EncodeToString(testCipherKey), false},
		{"too short", base64.StdEncoding.EncodeToString(testCipherKey[:16]), true},
		{"garbage", "not a key", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewTokenCipher(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCipherKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCipherKey, c.key[:])
		})
	}
}

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher(hex.EncodeToString(testCipherKey))
	require.NoError(t, err)

	box, err := c.Encrypt([]byte("v^1.1#i^1#r^1#refresh"))
	require.NoError(t, err)

	other, err := c.Encrypt([]byte("v^1.1#i^1#r^1#refresh"))
	require.NoError(t, err)
	assert.NotEqual(t, box, other, "each seal uses a fresh nonce")

	plain, err := c.Decrypt(box)
	require.NoError(t, err)
	assert.Equal(t, "v^1.1#i^1#r^1#refresh", string(plain))
}

func TestTokenCipher_DecryptFailures(t *testing.T) {
	c, err := NewTokenCipher(hex.EncodeToString(testCipherKey))
	require.NoError(t, err)
	box, err := c.Encrypt([]byte("secret"))
	require.NoError(t, err)

	tampered := append([]byte(nil), box...)
	tampered[len(tampered)-1] ^= 0xff

	otherKey, err := NewTokenCipher(hex.EncodeToString(bytes.Repeat([]byte{0x07}, 32)))
	require.NoError(t, err)

	_, err = c.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrDecryptFailed)
	_, err = c.Decrypt(box[:10])
	assert.ErrorIs(t, err, ErrDecryptFailed)
	_, err = otherKey.Decrypt(box)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}
