package services

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageService keeps generated assets on the local filesystem under
// root/{subfolder}/{uuid}.{ext} and maps them to /files/... URLs.
type StorageService struct {
	root string
}

func NewStorageService(root string) *StorageService {
	if root == "" {
		root = "./storage"
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		slog.Error("Failed to create storage root", "dir", root, "error", err)
	}
	return &StorageService{root: root}
}

// Save writes data to a fresh file and returns its public URL.
func (s *StorageService) Save(data []byte, subfolder, ext string) (string, error) {
	dir := filepath.Join(s.root, subfolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create storage dir: %w", err)
	}

	name := uuid.New().String() + "." + strings.TrimPrefix(ext, ".")
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	url := "/files/" + subfolder + "/" + name
	slog.Info("Stored file", "url", url, "size", len(data))
	return url, nil
}

// PathForURL maps a /files/... URL back to its on-disk path, rejecting
// anything that escapes the storage root.
func (s *StorageService) PathForURL(url string) (string, error) {
	rel := strings.TrimPrefix(url, "/files/")
	if rel == url {
		return "", fmt.Errorf("not a storage URL: %s", url)
	}

	path := filepath.Join(s.root, filepath.FromSlash(rel))
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve storage root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes storage root: %s", url)
	}
	return absPath, nil
}

// Delete removes a stored file; a missing file is not an error.
func (s *StorageService) Delete(url string) error {
	path, err := s.PathForURL(url)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Stats reports the number of stored files and their total size in bytes.
func (s *StorageService) Stats() (int, int64, error) {
	fileCount := 0
	var totalSize int64

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fileCount++
		if info, err := d.Info(); err == nil {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to walk storage: %w", err)
	}
	return fileCount, totalSize, nil
}

// CleanupTemp removes files in the temp subfolder older than the cutoff
// and returns how many were deleted.
func (s *StorageService) CleanupTemp(olderThan time.Duration) (int, error) {
	tempDir := filepath.Join(s.root, "temp")
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp dir: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(tempDir, entry.Name())); err != nil {
				slog.Warn("Failed to remove temp file", "name", entry.Name(), "error", err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		slog.Info("Cleaned up temp storage", "removed", removed)
	}
	return removed, nil
}
