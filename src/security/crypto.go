// Package security encrypts exchange credentials at rest. Credentials
// are stored only in encrypted form and decrypted just in time when an
// authenticated adapter is constructed; plaintext is never persisted
// or logged.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

func credentialsKey() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(GetConfig().ExchangeCRKey)
	if err != nil {
		return nil, fmt.Errorf("error decoding EXCHANGE_CREDENTIALS_KEY: %w", err)
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("EXCHANGE_CREDENTIALS_KEY must decode to %d bytes, got %d", chacha20poly1305.KeySize, len(raw))
	}
	return raw, nil
}

// EncryptString seals a plaintext credential with XChaCha20-Poly1305.
// The random nonce is prepended to the ciphertext and the whole blob
// is base64 encoded for storage.
func EncryptString(plaintext string) (string, error) {
	key, err := credentialsKey()
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("error building cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func DecryptString(encoded string) (string, error) {
	key, err := credentialsKey()
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("error building cipher: %w", err)
	}

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("error decoding credential blob: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return "", fmt.Errorf("credential blob shorter than nonce")
	}

	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("error decrypting credential: %w", err)
	}
	return string(plaintext), nil
}
