package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrKeyTooShort      = errors.New("session master key must be at least 16 bytes")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidPayload   = errors.New("invalid encrypted payload")
)

const codecContext = "voltbridge-cookie-encryption"

// Codec encrypts and decrypts cookie values with AES-GCM. The encryption
// key is derived from the configured master key via HKDF-SHA256 so the raw
// key material is never used directly.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a codec from a base64-encoded master key
func NewCodec(masterKey string) (*Codec, error) {
	raw, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(raw) < 16 {
		return nil, ErrKeyTooShort
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, raw, nil, []byte(codecContext)), key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals the plaintext and returns a base64url string with the
// nonce prepended. Empty input encrypts to the empty string.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt
func (c *Codec) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidPayload
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrInvalidPayload
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
