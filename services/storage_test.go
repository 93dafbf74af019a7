package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStorageSaveAndResolve(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	url, err := storage.Save([]byte("audio bytes"), "voice", "mp3")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasPrefix(url, "/files/voice/") || !strings.HasSuffix(url, ".mp3") {
		t.Errorf("Save() url = %q, want /files/voice/*.mp3", url)
	}

	path, err := storage.PathForURL(url)
	if err != nil {
		t.Fatalf("PathForURL() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "audio bytes" {
		t.Errorf("stored content = %q, want %q", data, "audio bytes")
	}
}

func TestStoragePathTraversal(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	tests := []string{
		"/files/../etc/passwd",
		"/files/voice/../../etc/passwd",
		"/etc/passwd",
		"not-a-url",
	}
	for _, url := range tests {
		if path, err := storage.PathForURL(url); err == nil {
			t.Errorf("PathForURL(%q) = %q, want error", url, path)
		}
	}
}

func TestStorageDelete(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	url, err := storage.Save([]byte("x"), "sounds", "mp3")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := storage.Delete(url); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	path, _ := storage.PathForURL(url)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after Delete()")
	}

	// Deleting again is not an error
	if err := storage.Delete(url); err != nil {
		t.Errorf("Delete() of missing file: %v", err)
	}
}

func TestStorageStats(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	if _, err := storage.Save([]byte("12345"), "voice", "mp3"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := storage.Save([]byte("123"), "music", "mp3"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	count, size, err := storage.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if count != 2 {
		t.Errorf("Stats() count = %d, want 2", count)
	}
	if size != 8 {
		t.Errorf("Stats() size = %d, want 8", size)
	}
}

func TestStorageCleanupTemp(t *testing.T) {
	root := t.TempDir()
	storage := NewStorageService(root)

	tempDir := filepath.Join(root, "temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}

	oldFile := filepath.Join(tempDir, "old.mp3")
	freshFile := filepath.Join(tempDir, "fresh.mp3")
	if err := os.WriteFile(oldFile, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(freshFile, []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}

	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, stale, stale); err != nil {
		t.Fatal(err)
	}

	removed, err := storage.CleanupTemp(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupTemp() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("CleanupTemp() removed = %d, want 1", removed)
	}
	if _, err := os.Stat(freshFile); err != nil {
		t.Error("fresh temp file was removed")
	}
}

func TestStorageCleanupTempMissingDir(t *testing.T) {
	storage := NewStorageService(t.TempDir())

	removed, err := storage.CleanupTemp(time.Hour)
	if err != nil || removed != 0 {
		t.Errorf("CleanupTemp() = (%d, %v), want (0, nil)", removed, err)
	}
}
