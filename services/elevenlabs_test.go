package services

import (
	"strings"
	"testing"
)

func TestSplitDialogue(t *testing.T) {
	line := func(chars int) DialogueInput {
		return DialogueInput{Text: strings.Repeat("a", chars), VoiceID: "v1"}
	}

	tests := []struct {
		name      string
		inputs    []DialogueInput
		wantParts int
	}{
		{"empty", nil, 0},
		{"single short line", []DialogueInput{line(100)}, 1},
		{"fits in one part", []DialogueInput{line(2000), line(2000)}, 1},
		{"splits at boundary", []DialogueInput{line(3000), line(3000)}, 2},
		{"three parts", []DialogueInput{line(4000), line(4000), line(4000)}, 3},
		{"over-long single line kept whole", []DialogueInput{line(5000)}, 1},
		{"long script packed into part budget", []DialogueInput{line(4000), line(4000), line(4000), line(4000)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitDialogue(tt.inputs)
			if len(parts) != tt.wantParts {
				t.Errorf("SplitDialogue() parts = %d, want %d", len(parts), tt.wantParts)
			}
			if len(parts) > maxDialogueParts {
				t.Errorf("SplitDialogue() produced %d parts, maximum is %d", len(parts), maxDialogueParts)
			}
		})
	}
}

func TestSplitDialogueKeepsLinesIntact(t *testing.T) {
	inputs := []DialogueInput{
		{Text: strings.Repeat("a", 3000), VoiceID: "v1"},
		{Text: strings.Repeat("b", 3000), VoiceID: "v2"},
		{Text: strings.Repeat("c", 1000), VoiceID: "v1"},
	}

	parts := SplitDialogue(inputs)

	var flattened []DialogueInput
	for _, part := range parts {
		if len(part) == 0 {
			t.Error("SplitDialogue() produced an empty part")
		}
		flattened = append(flattened, part...)
	}
	if len(flattened) != len(inputs) {
		t.Fatalf("lines across parts = %d, want %d", len(flattened), len(inputs))
	}
	for i := range inputs {
		if flattened[i].Text != inputs[i].Text || flattened[i].VoiceID != inputs[i].VoiceID {
			t.Errorf("line %d was altered by splitting", i)
		}
	}
}

func TestSplitDialogueOverflowStaysInFinalPart(t *testing.T) {
	// Four 4000-char lines cannot fit maxDialogueParts parts within the
	// per-request limit; the overflow lands in the later parts instead of
	// failing the script.
	inputs := []DialogueInput{
		{Text: strings.Repeat("a", 4000), VoiceID: "v1"},
		{Text: strings.Repeat("b", 4000), VoiceID: "v1"},
		{Text: strings.Repeat("c", 4000), VoiceID: "v1"},
		{Text: strings.Repeat("d", 4000), VoiceID: "v1"},
	}

	parts := SplitDialogue(inputs)
	if len(parts) > maxDialogueParts {
		t.Fatalf("SplitDialogue() parts = %d, maximum is %d", len(parts), maxDialogueParts)
	}

	total := 0
	for _, part := range parts {
		total += len(part)
	}
	if total != len(inputs) {
		t.Errorf("lines across parts = %d, want %d", total, len(inputs))
	}

	last := parts[len(parts)-1]
	lastChars := 0
	for _, input := range last {
		lastChars += len(input.Text)
	}
	if lastChars <= maxCharsPerRequest {
		t.Errorf("expected the final part to carry the overflow, got %d chars", lastChars)
	}
}
