// Package crypto seals small secrets, such as a persisted session, with
// AES-256-GCM before they leave the process.
package crypto

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

// KeyLength is the AES-256 key size in bytes.
const KeyLength = 32

var (
	ErrInvalidKey        = fmt.Errorf("invalid key length: must be %d bytes for AES-256", KeyLength)
	ErrMalformedSealed   = errors.New("sealed value is malformed")
	ErrDecryptionFailure = errors.New("failed to decrypt sealed value")
)

// KeyFromBase64 decodes a standard base64 key and checks its length.
func KeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key from base64: %w", err)
	}
	if len(key) != KeyLength {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Sealer encrypts and decrypts with one key.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plain, nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(out, sealed)
	return out, nil
}

// Open reverses Seal. A value sealed with another key fails with
// ErrDecryptionFailure.
func (s *Sealer) Open(encoded []byte) ([]byte, error) {
	sealed := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(sealed, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSealed, err)
	}
	sealed = sealed[:n]

	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, ErrMalformedSealed
	}
	plain, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailure
	}
	return plain, nil
}
