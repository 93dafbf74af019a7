package services

import (
	"fmt"
	"testing"
)

func TestSampleCacheGetOrGenerate(t *testing.T) {
	cache := NewSampleCache(t.TempDir())

	calls := 0
	generator := func() ([]byte, error) {
		calls++
		return []byte("mp3 sample"), nil
	}

	first, err := cache.GetOrGenerate("hello", "voice-1", generator)
	if err != nil {
		t.Fatalf("GetOrGenerate() error: %v", err)
	}
	second, err := cache.GetOrGenerate("hello", "voice-1", generator)
	if err != nil {
		t.Fatalf("GetOrGenerate() error: %v", err)
	}

	if calls != 1 {
		t.Errorf("generator called %d times, want 1", calls)
	}
	if string(first) != "mp3 sample" || string(second) != "mp3 sample" {
		t.Error("cached sample does not match generated sample")
	}
}

func TestSampleCacheKeysByTextAndVoice(t *testing.T) {
	cache := NewSampleCache(t.TempDir())

	for i, pair := range []struct{ text, voice string }{
		{"hello", "voice-1"},
		{"hello", "voice-2"},
		{"goodbye", "voice-1"},
	} {
		payload := []byte(fmt.Sprintf("sample-%d", i))
		if err := cache.Set(pair.text, pair.voice, payload); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}

	for i, pair := range []struct{ text, voice string }{
		{"hello", "voice-1"},
		{"hello", "voice-2"},
		{"goodbye", "voice-1"},
	} {
		data, found := cache.Get(pair.text, pair.voice)
		if !found {
			t.Fatalf("Get(%q, %q) missed", pair.text, pair.voice)
		}
		if want := fmt.Sprintf("sample-%d", i); string(data) != want {
			t.Errorf("Get(%q, %q) = %q, want %q", pair.text, pair.voice, data, want)
		}
	}
}

func TestSampleCacheGenerateError(t *testing.T) {
	cache := NewSampleCache(t.TempDir())

	_, err := cache.GetOrGenerate("hello", "voice-1", func() ([]byte, error) {
		return nil, fmt.Errorf("vendor down")
	})
	if err == nil {
		t.Error("GetOrGenerate() should surface generator errors")
	}

	if _, found := cache.Get("hello", "voice-1"); found {
		t.Error("failed generation must not be cached")
	}
}

func TestSampleCacheStatsAndClear(t *testing.T) {
	cache := NewSampleCache(t.TempDir())

	cache.Set("a", "v1", []byte("12"))
	cache.Set("b", "v1", []byte("345"))

	count, size, err := cache.GetCacheStats()
	if err != nil {
		t.Fatalf("GetCacheStats() error: %v", err)
	}
	if count != 2 || size != 5 {
		t.Errorf("GetCacheStats() = (%d, %d), want (2, 5)", count, size)
	}

	if err := cache.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error: %v", err)
	}
	count, _, err = cache.GetCacheStats()
	if err != nil {
		t.Fatalf("GetCacheStats() after clear: %v", err)
	}
	if count != 0 {
		t.Errorf("cache not empty after ClearCache(): %d entries", count)
	}
}
