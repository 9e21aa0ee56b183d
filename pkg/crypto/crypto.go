// Package crypto seals small values (persisted session descriptors, preferences)
// with AES-256-GCM. The storage key is bound as additional data so a sealed value
// cannot be replayed under another key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var ErrMalformed = errors.New("crypto: malformed sealed value")

type Sealer interface {
	Seal(key, plaintext string) (string, error)
	Open(key, sealed string) (string, error)
}

type gcmSealer struct {
	aead cipher.AEAD
}

// NewSealer expects a base64 encoded 32 byte key.
func NewSealer(keyStr string) (Sealer, error) {
	if keyStr == "" {
		return nil, fmt.Errorf("encryption key is required")
	}

	key, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes once decoded, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &gcmSealer{aead: aead}, nil
}

func (s *gcmSealer) Seal(key, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(key))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *gcmSealer) Open(key, sealed string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	n := s.aead.NonceSize()
	if len(data) < n+s.aead.Overhead() {
		return "", ErrMalformed
	}

	plain, err := s.aead.Open(nil, data[:n], data[n:], []byte(key))
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plain), nil
}
