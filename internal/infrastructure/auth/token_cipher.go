package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	cipherKeySize   = 32
	cipherNonceSize = 24
)

var (
	ErrInvalidCipherKey = errors.New("token cipher key must be 32 bytes, base64 or hex encoded")
	ErrDecryptFailed    = errors.New("failed to decrypt token")
)

// TokenCipher seals marketplace refresh tokens at rest with NaCl secretbox.
// The 24-byte nonce is prepended to the sealed box.
type TokenCipher struct {
	key [cipherKeySize]byte
}

// NewTokenCipher parses a 32-byte key given as base64 or hex
func NewTokenCipher(encodedKey string) (*TokenCipher, error) {
	raw, err := decodeKey(encodedKey)
	if err != nil {
		return nil, err
	}
	c := &TokenCipher{}
	copy(c.key[:], raw)
	return c, nil
}

func decodeKey(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == cipherKeySize {
		return b, nil
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil && len(b) == cipherKeySize {
			return b, nil
		}
	}
	return nil, ErrInvalidCipherKey
}

// Encrypt seals plaintext under a fresh random nonce
func (c *TokenCipher) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [cipherNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &c.key), nil
}

// Decrypt opens a box produced by Encrypt
func (c *TokenCipher) Decrypt(box []byte) ([]byte, error) {
	if len(box) < cipherNonceSize+secretbox.Overhead {
		return nil, ErrDecryptFailed
	}
	var nonce [cipherNonceSize]byte
	copy(nonce[:], box[:cipherNonceSize])
	plaintext, ok := secretbox.Open(nil, box[cipherNonceSize:], &nonce, &c.key)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
