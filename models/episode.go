package models

import (
	"time"

	"gorm.io/gorm"
)

// Episode pipeline statuses. Progression is linear and driven by the client
// issuing one generation call per step; the error status can be entered from
// any generating state.
const (
	StatusDraft               = "draft"
	StatusScriptGenerating    = "script_generating"
	StatusScriptDone          = "script_done"
	StatusVoiceoverGenerating = "voiceover_generating"
	StatusVoiceoverDone       = "voiceover_done"
	StatusSoundsGenerating    = "sounds_generating"
	StatusSoundsDone          = "sounds_done"
	StatusMusicGenerating     = "music_generating"
	StatusMusicDone           = "music_done"
	StatusMerging             = "merging"
	StatusAudioDone           = "audio_done"
	StatusCoverGenerating     = "cover_generating"
	StatusDone                = "done"
	StatusError               = "error"
)

type Episode struct {
	ID                 string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID          string `gorm:"type:uuid;not null;index" json:"project_id"`
	EpisodeNumber      int    `gorm:"not null;default:1" json:"episode_number"`
	Title              string `gorm:"size:255" json:"title,omitempty"`
	TitleAutoGenerated bool   `gorm:"default:true" json:"title_auto_generated"`
	ShowEpisodeNumber  bool   `gorm:"default:true" json:"show_episode_number"`
	Description        string `gorm:"type:text" json:"description,omitempty"`

	TargetDurationMinutes  int  `gorm:"default:10" json:"target_duration_minutes"`
	IncludeSoundEffects    bool `gorm:"default:true" json:"include_sound_effects"`
	IncludeBackgroundMusic bool `gorm:"default:true" json:"include_background_music"`

	// Script step output
	ScriptJSON string `gorm:"type:text" json:"script_json,omitempty"`
	ScriptText string `gorm:"type:text" json:"script_text,omitempty"`
	Summary    string `gorm:"type:text" json:"summary,omitempty"`

	// Voiceover step output
	VoiceAudioURL       string  `gorm:"size:500" json:"voice_audio_url,omitempty"`
	VoiceAudioDuration  float64 `json:"voice_audio_duration,omitempty"`
	VoiceTimestampsJSON string  `gorm:"type:text" json:"voice_timestamps_json,omitempty"`

	// Sounds / music step output
	SoundsJSON           string `gorm:"type:text" json:"sounds_json,omitempty"`
	MusicURL             string `gorm:"size:500" json:"music_url,omitempty"`
	MusicCompositionPlan string `gorm:"type:text" json:"music_composition_plan,omitempty"`

	// Merge step output
	FinalAudioURL      string  `gorm:"size:500" json:"final_audio_url,omitempty"`
	FinalAudioDuration float64 `json:"final_audio_duration,omitempty"`

	// Cover step output
	CoverURL               string `gorm:"size:500" json:"cover_url,omitempty"`
	CoverReferenceImageURL string `gorm:"size:500" json:"cover_reference_image_url,omitempty"`
	CoverVariantsJSON      string `gorm:"type:text" json:"cover_variants_json,omitempty"`

	Status       string `gorm:"not null;default:'draft'" json:"status"`
	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// Script is the structured output of the script generation step, stored
// serialized in Episode.ScriptJSON.
type Script struct {
	StoryTitle           string       `json:"story_title"`
	GenreTone            string       `json:"genre_tone"`
	ApproxDurationMinute int          `json:"approx_duration_minutes"`
	Lines                []ScriptLine `json:"lines"`
}

type ScriptLine struct {
	Speaker     string  `json:"speaker"`
	VoiceID     string  `json:"voice_id"`
	Text        string  `json:"text"`
	SoundEffect *string `json:"sound_effect"`
}

// SoundEffect records one generated effect and where it lands on the
// voiceover timeline, stored serialized in Episode.SoundsJSON.
type SoundEffect struct {
	Prompt    string  `json:"prompt"`
	URL       string  `json:"url"`
	LocalPath string  `json:"local_path,omitempty"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

// CoverVariant is one candidate cover image, stored serialized in
// Episode.CoverVariantsJSON.
type CoverVariant struct {
	URL      string `json:"url"`
	Selected bool   `json:"selected"`
}
