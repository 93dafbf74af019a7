package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyVault encrypts user-supplied vendor API keys before they are written
// to the database. The cipher key is derived from the configured
// ENCRYPTION_KEY, padded or truncated to 32 bytes.
type KeyVault struct {
	key []byte
}

func NewKeyVault(encryptionKey string) (*KeyVault, error) {
	if encryptionKey == "" {
		return nil, fmt.Errorf("encryption key is not configured")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	copy(key, []byte(encryptionKey))

	return &KeyVault{key: key}, nil
}

// Encrypt seals a plaintext secret. Empty input stays empty so unset
// settings round-trip cleanly.
func (v *KeyVault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (v *KeyVault) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	raw, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted value: %w", err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("encrypted value too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}

	return string(plaintext), nil
}

// GenerateAPIKey creates a new client API key. Returns the plain key (shown
// once) and its SHA-256 hash for storage.
func GenerateAPIKey() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate key material: %w", err)
	}

	plain := "hc_" + base64.RawURLEncoding.EncodeToString(raw)
	return plain, HashAPIKey(plain), nil
}

// HashAPIKey hashes a plain API key the way it is stored.
func HashAPIKey(plain string) string {
	hash := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(hash[:])
}

// MaskSecret shortens a secret for display in settings responses.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
