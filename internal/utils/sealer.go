package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands secret into a 32-byte key bound to purpose, so one
// configured secret can serve several independent uses.
func DeriveKey(secret, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// Sealer encrypts short values with AES-GCM.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a sealer from a 16, 24 or 32 byte key.
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts value and returns nonce||ciphertext as raw URL-safe base64.
// additionalData is authenticated but not encrypted.
func (s *Sealer) Seal(value, additionalData string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	payload := s.aead.Seal(nonce, nonce, []byte(value), []byte(additionalData))
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Open reverses Seal. It fails when the payload or additionalData was altered.
func (s *Sealer) Open(sealed, additionalData string) (string, error) {
	payload, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	nonceSize := s.aead.NonceSize()
	if len(payload) < nonceSize {
		return "", errors.New("sealed value is too short")
	}
	plaintext, err := s.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], []byte(additionalData))
	if err != nil {
		return "", fmt.Errorf("decrypt sealed value: %w", err)
	}
	return string(plaintext), nil
}

// OTPDigest binds code to tokenID under key. Only the digest leaves the server.
func OTPDigest(key []byte, tokenID, code string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(tokenID))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// MatchOTPDigest reports whether code produces digest, in constant time.
func MatchOTPDigest(key []byte, tokenID, code, digest string) bool {
	return hmac.Equal([]byte(OTPDigest(key, tokenID, code)), []byte(digest))
}
