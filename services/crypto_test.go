package services

import (
	"strings"
	"testing"
)

func TestKeyVaultRoundTrip(t *testing.T) {
	vault, err := NewKeyVault("test-encryption-key")
	if err != nil {
		t.Fatalf("NewKeyVault() error: %v", err)
	}

	plaintext := "sk-or-v1-abcdef0123456789"
	encrypted, err := vault.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if encrypted == plaintext {
		t.Fatal("Encrypt() returned plaintext unchanged")
	}

	decrypted, err := vault.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("Decrypt() = %q, want %q", decrypted, plaintext)
	}
}

func TestKeyVaultEmptyValues(t *testing.T) {
	vault, err := NewKeyVault("test-encryption-key")
	if err != nil {
		t.Fatalf("NewKeyVault() error: %v", err)
	}

	if encrypted, err := vault.Encrypt(""); err != nil || encrypted != "" {
		t.Errorf("Encrypt(\"\") = (%q, %v), want empty and nil", encrypted, err)
	}
	if decrypted, err := vault.Decrypt(""); err != nil || decrypted != "" {
		t.Errorf("Decrypt(\"\") = (%q, %v), want empty and nil", decrypted, err)
	}
}

func TestKeyVaultWrongKey(t *testing.T) {
	vaultA, _ := NewKeyVault("key-a")
	vaultB, _ := NewKeyVault("key-b")

	encrypted, err := vaultA.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if _, err := vaultB.Decrypt(encrypted); err == nil {
		t.Error("Decrypt() with a different key should fail")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	plain, hash, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error: %v", err)
	}

	if !strings.HasPrefix(plain, "hc_") {
		t.Errorf("key %q missing hc_ prefix", plain)
	}
	if HashAPIKey(plain) != hash {
		t.Error("HashAPIKey(plain) does not match returned hash")
	}
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(hash))
	}

	// Two keys must never collide
	plain2, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error: %v", err)
	}
	if plain == plain2 {
		t.Error("GenerateAPIKey() produced duplicate keys")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short", "abc", "****"},
		{"exactly eight", "12345678", "****"},
		{"long key", "sk-or-v1-abcdef0123456789", "sk-o...6789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSecret(tt.secret); got != tt.want {
				t.Errorf("MaskSecret(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}
