package services

import (
	"testing"

	"github.com/heinercast/backend/models"
)

func TestIsGenerating(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{models.StatusDraft, false},
		{models.StatusScriptGenerating, true},
		{models.StatusScriptDone, false},
		{models.StatusVoiceoverGenerating, true},
		{models.StatusSoundsGenerating, true},
		{models.StatusMusicGenerating, true},
		{models.StatusMerging, true},
		{models.StatusAudioDone, false},
		{models.StatusCoverGenerating, true},
		{models.StatusDone, false},
		{models.StatusError, false},
	}

	for _, tt := range tests {
		if got := IsGenerating(tt.status); got != tt.want {
			t.Errorf("IsGenerating(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func findStep(t *testing.T, states []StepState, name string) StepState {
	t.Helper()
	for _, state := range states {
		if state.Name == name {
			return state
		}
	}
	t.Fatalf("step %q not reported", name)
	return StepState{}
}

func TestStepStatesFreshEpisode(t *testing.T) {
	episode := &models.Episode{
		Status:                 models.StatusDraft,
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
	}

	for _, state := range StepStates(episode) {
		if state.State != "pending" {
			t.Errorf("step %s = %q, want pending", state.Name, state.State)
		}
	}
}

func TestStepStatesMidPipeline(t *testing.T) {
	episode := &models.Episode{
		Status:                 models.StatusVoiceoverGenerating,
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
		ScriptJSON:             `{"story_title":"t"}`,
	}

	states := StepStates(episode)
	if s := findStep(t, states, StepScript); s.State != "done" {
		t.Errorf("script = %q, want done", s.State)
	}
	if s := findStep(t, states, StepVoiceover); s.State != "in_progress" {
		t.Errorf("voiceover = %q, want in_progress", s.State)
	}
	if s := findStep(t, states, StepMerge); s.State != "pending" {
		t.Errorf("merge = %q, want pending", s.State)
	}
}

func TestStepStatesSkippedSteps(t *testing.T) {
	episode := &models.Episode{
		Status:                 models.StatusVoiceoverDone,
		IncludeSoundEffects:    false,
		IncludeBackgroundMusic: false,
	}

	states := StepStates(episode)
	if s := findStep(t, states, StepSounds); s.State != "skipped" {
		t.Errorf("sounds = %q, want skipped", s.State)
	}
	if s := findStep(t, states, StepMusic); s.State != "skipped" {
		t.Errorf("music = %q, want skipped", s.State)
	}
}

func TestStepStatesError(t *testing.T) {
	// Voiceover failed: the script exists but no voice audio does
	episode := &models.Episode{
		Status:                 models.StatusError,
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
		ScriptJSON:             `{"story_title":"t"}`,
		ErrorMessage:           "elevenlabs API error",
	}

	states := StepStates(episode)
	if s := findStep(t, states, StepScript); s.State != "done" {
		t.Errorf("script = %q, want done", s.State)
	}
	if s := findStep(t, states, StepVoiceover); s.State != "error" {
		t.Errorf("voiceover = %q, want error", s.State)
	}
	if s := findStep(t, states, StepSounds); s.State != "pending" {
		t.Errorf("sounds = %q, want pending", s.State)
	}
}

func TestCurrentStepIndex(t *testing.T) {
	tests := []struct {
		name   string
		states []StepState
		want   int
	}{
		{"fresh pipeline starts at the first step",
			[]StepState{{StepScript, "pending"}, {StepVoiceover, "pending"}}, 0},
		{"in-progress step wins over later pending",
			[]StepState{{StepScript, "done"}, {StepVoiceover, "in_progress"}, {StepSounds, "pending"}}, 1},
		{"errored step is the current one",
			[]StepState{{StepScript, "done"}, {StepVoiceover, "error"}, {StepSounds, "pending"}}, 1},
		{"skipped steps are passed over",
			[]StepState{{StepScript, "done"}, {StepSounds, "skipped"}, {StepMerge, "pending"}}, 2},
		{"finished pipeline has no current step",
			[]StepState{{StepScript, "done"}, {StepCover, "done"}}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStepIndex(tt.states); got != tt.want {
				t.Errorf("CurrentStepIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStepStatesComplete(t *testing.T) {
	episode := &models.Episode{
		Status:                 models.StatusDone,
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
	}

	for _, state := range StepStates(episode) {
		if state.State != "done" {
			t.Errorf("step %s = %q, want done", state.Name, state.State)
		}
	}
}
