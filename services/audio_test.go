package services

import (
	"strings"
	"testing"

	"github.com/heinercast/backend/models"
)

func TestBuildMixFilter(t *testing.T) {
	tests := []struct {
		name   string
		tracks []MixTrack
		want   string
	}{
		{
			"voice only",
			[]MixTrack{{Path: "voice.mp3", Volume: 1.0}},
			"[0:a]volume=1[a0];[a0]amix=inputs=1:duration=first[out]",
		},
		{
			"voice and music",
			[]MixTrack{
				{Path: "voice.mp3", Volume: 1.0},
				{Path: "music.mp3", Volume: 0.25},
			},
			"[0:a]volume=1[a0];[1:a]volume=0.25[a1];[a0][a1]amix=inputs=2:duration=first[out]",
		},
		{
			"delayed effect",
			[]MixTrack{
				{Path: "voice.mp3", Volume: 1.0},
				{Path: "sfx.mp3", Volume: 0.5, DelayMs: 4500},
			},
			"[0:a]volume=1[a0];[1:a]volume=0.5,adelay=4500|4500[a1];[a0][a1]amix=inputs=2:duration=first[out]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildMixFilter(tt.tracks); got != tt.want {
				t.Errorf("BuildMixFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanSoundEffects(t *testing.T) {
	creak := "door creaks"
	thunder := "distant thunder"
	script := &models.Script{
		StoryTitle: "t",
		GenreTone:  "g",
		Lines: []models.ScriptLine{
			{Speaker: "A", Text: strings.Repeat("x", 140), SoundEffect: &creak},
			{Speaker: "B", Text: strings.Repeat("y", 70)},
			{Speaker: "A", Text: strings.Repeat("z", 28), SoundEffect: &thunder},
		},
	}

	effects := PlanSoundEffects(script)
	if len(effects) != 2 {
		t.Fatalf("PlanSoundEffects() returned %d effects, want 2", len(effects))
	}

	// 140 chars at 14 chars/sec places the first effect at 10s
	if effects[0].Prompt != creak || effects[0].StartTime != 10.0 {
		t.Errorf("first effect = %+v, want prompt %q at 10.0s", effects[0], creak)
	}
	// 140+70+28 chars puts the second effect at 17s
	if effects[1].Prompt != thunder || effects[1].StartTime != 17.0 {
		t.Errorf("second effect = %+v, want prompt %q at 17.0s", effects[1], thunder)
	}
	for i, effect := range effects {
		if effect.Duration != defaultEffectDuration {
			t.Errorf("effect %d duration = %v, want %v", i, effect.Duration, defaultEffectDuration)
		}
	}
}

func TestPlanSoundEffectsNoEffects(t *testing.T) {
	script := &models.Script{
		Lines: []models.ScriptLine{
			{Speaker: "A", Text: "no effects here"},
		},
	}
	if effects := PlanSoundEffects(script); len(effects) != 0 {
		t.Errorf("PlanSoundEffects() = %v, want empty", effects)
	}
}
