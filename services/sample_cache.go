package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SampleCache provides filesystem-based caching for voice test samples so
// repeated auditions of the same voice and text do not hit ElevenLabs again.
type SampleCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

func NewSampleCache(cacheDir string) *SampleCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		slog.Error("Failed to create cache directory", "dir", cacheDir, "error", err)
	}

	return &SampleCache{
		cacheDir: cacheDir,
	}
}

func (sc *SampleCache) cacheKey(text, voiceID string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", text, voiceID)))
	return hex.EncodeToString(hash[:])
}

func (sc *SampleCache) cachePath(key string) string {
	return filepath.Join(sc.cacheDir, key+".mp3")
}

// Get retrieves a cached sample if it exists.
func (sc *SampleCache) Get(text, voiceID string) ([]byte, bool) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	path := sc.cachePath(sc.cacheKey(text, voiceID))
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to read cached sample", "path", path, "error", err)
		}
		return nil, false
	}

	slog.Info("Sample cache hit", "voice_id", voiceID)
	return data, true
}

// Set stores a sample in the cache.
func (sc *SampleCache) Set(text, voiceID string, audioData []byte) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	path := sc.cachePath(sc.cacheKey(text, voiceID))
	if err := os.WriteFile(path, audioData, 0644); err != nil {
		slog.Error("Failed to write sample to cache", "path", path, "error", err)
		return err
	}

	slog.Info("Cached voice sample", "voice_id", voiceID, "size", len(audioData))
	return nil
}

// GetOrGenerate returns a cached sample or generates and caches a new one.
func (sc *SampleCache) GetOrGenerate(text, voiceID string, generator func() ([]byte, error)) ([]byte, error) {
	if cached, found := sc.Get(text, voiceID); found {
		return cached, nil
	}

	audioData, err := generator()
	if err != nil {
		return nil, fmt.Errorf("failed to generate sample: %w", err)
	}

	if err := sc.Set(text, voiceID, audioData); err != nil {
		slog.Warn("Failed to cache sample", "error", err)
	}
	return audioData, nil
}

// ClearCache removes all cached samples.
func (sc *SampleCache) ClearCache() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if err := os.RemoveAll(sc.cacheDir); err != nil {
		return err
	}
	return os.MkdirAll(sc.cacheDir, 0755)
}

// GetCacheStats returns the number of cached samples and their total size.
func (sc *SampleCache) GetCacheStats() (int, int64, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	entries, err := os.ReadDir(sc.cacheDir)
	if err != nil {
		return 0, 0, err
	}

	var totalSize int64
	fileCount := 0

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".mp3" {
			fileCount++
			if info, err := entry.Info(); err == nil {
				totalSize += info.Size()
			}
		}
	}

	return fileCount, totalSize, nil
}
