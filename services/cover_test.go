package services

import (
	"strings"
	"testing"
)

func TestClampVariantCount(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{4, 4},
		{10, 4},
	}

	for _, tt := range tests {
		if got := ClampVariantCount(tt.in); got != tt.want {
			t.Errorf("ClampVariantCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCoverTaskFailed(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"fail", true},
		{"failed", true},
		{"error", true},
		{"FAILED", true},
		{"Error", true},
		{"success", false},
		{"waiting", false},
		{"queuing", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := coverTaskFailed(tt.state); got != tt.want {
			t.Errorf("coverTaskFailed(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestBuildCoverPrompt(t *testing.T) {
	template := "Cover for {title}, a {genre_tone} story. {description}"

	prompt := BuildCoverPrompt(template, "The Last Signal", "sci-fi thriller", "A station falls silent.", "")
	want := "Cover for The Last Signal, a sci-fi thriller story. A station falls silent."
	if prompt != want {
		t.Errorf("BuildCoverPrompt() = %q, want %q", prompt, want)
	}
}

func TestBuildCoverPromptWithStyle(t *testing.T) {
	prompt := BuildCoverPrompt("{title}", "t", "g", "d", "neon palette, rain")
	if !strings.HasSuffix(prompt, "Art direction: neon palette, rain") {
		t.Errorf("BuildCoverPrompt() missing style suffix: %q", prompt)
	}
}

func TestBuildCoverPromptDefaultTemplate(t *testing.T) {
	prompt := BuildCoverPrompt("", "The Last Signal", "sci-fi", "desc", "")
	if !strings.Contains(prompt, "The Last Signal") {
		t.Errorf("default template did not substitute title: %q", prompt)
	}
	if strings.Contains(prompt, "{title}") || strings.Contains(prompt, "{genre_tone}") {
		t.Errorf("default template left placeholders: %q", prompt)
	}
}
