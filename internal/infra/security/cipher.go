// File: internal/infra/security/cipher.go
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks values produced by Seal so plaintext written before
// encryption was switched on can still be read.
const sealedPrefix = "enc:v1:"

var ErrMalformed = errors.New("malformed ciphertext")

// Cipher encrypts short secrets (credential passwords) with AES-GCM and a
// random nonce per value.
type Cipher struct {
	gcm cipher.AEAD
}

// NewCipher accepts a raw 16, 24 or 32 byte key or the standard base64
// encoding of one.
func NewCipher(key string) (*Cipher, error) {
	k := []byte(key)
	if !validKeyLen(len(k)) {
		decoded, err := base64.StdEncoding.DecodeString(key)
		if err != nil || !validKeyLen(len(decoded)) {
			return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes (raw or base64); got %d", len(k))
		}
		k = decoded
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Cipher{gcm: gcm}, nil
}

func validKeyLen(n int) bool { return n == 16 || n == 24 || n == 32 }

// Seal returns prefix + base64(nonce || ciphertext).
func (c *Cipher) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(ct), nil
}

// Open reverses Seal. Values without the prefix are returned unchanged.
func (c *Cipher) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ns := c.gcm.NonceSize()
	if len(data) < ns {
		return "", ErrMalformed
	}
	nonce, ct := data[:ns], data[ns:]
	pt, err := c.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm open: %w", err)
	}
	return string(pt), nil
}

func IsSealed(v string) bool { return strings.HasPrefix(v, sealedPrefix) }
