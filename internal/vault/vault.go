// Package vault encrypts portal credentials at rest with AES-GCM.
// Each record gets a fresh random nonce prepended to the ciphertext, so
// encrypting the same password twice never yields the same output, and
// any tampering fails the authentication tag check on decrypt.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when ciphertext fails authentication or is
// malformed. It must never be silently converted into garbage plaintext.
var ErrDecrypt = errors.New("vault: ciphertext authentication failed")

// Vault performs authenticated symmetric encryption with a server-held key
type Vault struct {
	aead cipher.AEAD
}

// New creates a Vault from a 16, 24 or 32 byte key
func New(key []byte) (*Vault, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: invalid key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Vault{aead: aead}, nil
}

// NewFromBase64 creates a Vault from a base64-encoded key
func NewFromBase64(encoded string) (*Vault, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("vault: invalid base64 key: %w", err)
	}
	return New(key)
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext)
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input yields ErrDecrypt.
func (v *Vault) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < v.aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce, ciphertext := raw[:v.aead.NonceSize()], raw[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
