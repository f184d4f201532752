package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	cases := []string{
		"earsiv-password-123",
		"",
		"şifre with ünïcode",
		"!@#$%^&*()_+-=[]{}",
	}

	for _, plaintext := range cases {
		encrypted, err := v.Encrypt(plaintext)
		require.NoError(t, err)
		if plaintext != "" {
			assert.NotEqual(t, plaintext, encrypted)
		}

		decrypted, err := v.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptUsesRandomNonce(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	first, err := v.Encrypt("same password")
	require.NoError(t, err)
	second, err := v.Encrypt("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	encrypted, err := v.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = v.Decrypt(tampered)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptMalformedInput(t *testing.T) {
	v, err := New(testKey)
	require.NoError(t, err)

	for _, input := range []string{"not-base64!!!", "YWJj", ""} {
		_, err := v.Decrypt(input)
		assert.ErrorIs(t, err, ErrDecrypt, "input %q", input)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	v1, err := New(testKey)
	require.NoError(t, err)
	v2, err := New([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	encrypted, err := v1.Encrypt("secret")
	require.NoError(t, err)

	_, err = v2.Decrypt(encrypted)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New([]byte("short"))
	assert.Error(t, err)

	_, err = NewFromBase64("not valid base64 ###")
	assert.Error(t, err)
}
