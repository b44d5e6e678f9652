// Package cryptox seals small secrets (remote refresh tokens) before they are
// written to the database.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const nonceSize = 12

var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// DeriveKey stretches a configured passphrase into a 32-byte AES-256 key.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Sealer encrypts strings with AES-GCM. The stored form is
// base64(nonce || ciphertext). The empty string is passed through both ways
// so "no token" stays representable without a ciphertext.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds an AES-GCM Sealer; key must be 16, 24 or 32 bytes.
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromPassphrase derives the key with DeriveKey and builds a Sealer.
func NewSealerFromPassphrase(passphrase, salt string) (*Sealer, error) {
	return NewSealer(DeriveKey([]byte(passphrase), []byte(salt)))
}

func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedCiphertext, err)
	}
	if len(raw) < nonceSize {
		return "", ErrMalformedCiphertext
	}

	plaintext, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
