// Package secretbox seals short secrets (backend tokens) for storage in the
// visitor session.
package secretbox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

const keyInfo = "suede-signup session token v1"

var (
	ErrNoKey   = errors.New("secretbox: encryption key is empty")
	ErrDecrypt = errors.New("secretbox: cannot decrypt value")
)

// Box encrypts with XChaCha20-Poly1305 under a key derived once via HKDF-SHA256.
type Box struct {
	aead cipher.AEAD
}

func New(secret string) (*Box, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoKey
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("secretbox: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: %w", err)
	}
	return &Box{aead: aead}, nil
}

func NewFromEnv() (*Box, error) {
	return New(env.GetEnv("SESSION_ENCRYPTION_KEY", ""))
}

// Seal returns base64url(nonce || ciphertext).
func (b *Box) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize(), b.aead.NonceSize()+len(plaintext)+b.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secretbox: nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Any malformed or tampered input yields ErrDecrypt.
func (b *Box) Open(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < b.aead.NonceSize()+b.aead.Overhead() {
		return "", ErrDecrypt
	}
	nonce, ciphertext := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plain, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
