package services

import "testing"

func TestPickFallbackVoiceDeterministic(t *testing.T) {
	first := PickFallbackVoice("Narrator")
	second := PickFallbackVoice("Narrator")
	if first != second {
		t.Errorf("same speaker mapped to different voices: %q vs %q", first, second)
	}

	// Case and surrounding whitespace must not change the assignment
	if PickFallbackVoice("  narrator ") != first {
		t.Error("normalized speaker name mapped to a different voice")
	}
}

func TestPickFallbackVoiceInPool(t *testing.T) {
	pool := make(map[string]bool, len(stockVoices))
	for _, id := range stockVoices {
		pool[id] = true
	}

	for _, speaker := range []string{"Narrator", "Ava", "Капитан", "Dr. Vance", ""} {
		if voiceID := PickFallbackVoice(speaker); !pool[voiceID] {
			t.Errorf("PickFallbackVoice(%q) = %q, not a stock voice", speaker, voiceID)
		}
	}
}
