package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID                     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID                 string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title                  string         `gorm:"size:255;not null" json:"title"`
	Description            string         `gorm:"type:text" json:"description,omitempty"`
	GenreTone              string         `gorm:"size:255" json:"genre_tone,omitempty"`
	MusicalAtmosphere      string         `gorm:"size:255" json:"musical_atmosphere,omitempty"`
	IncludeSoundEffects    bool           `gorm:"default:true" json:"include_sound_effects"`
	IncludeBackgroundMusic bool           `gorm:"default:true" json:"include_background_music"`
	CoverURL               string         `gorm:"size:500" json:"cover_url,omitempty"`
	CoverPrompt            string         `gorm:"type:text" json:"cover_prompt,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User       User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Characters []ProjectCharacter `gorm:"foreignKey:ProjectID" json:"characters,omitempty"`
	Episodes   []Episode          `gorm:"foreignKey:ProjectID" json:"episodes,omitempty"`
}

// ProjectCharacter maps a narrative role to a voice from the user's library.
// Voice deletion is restricted while any character references it.
type ProjectCharacter struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID     string         `gorm:"type:uuid;not null;index" json:"project_id"`
	VoiceID       string         `gorm:"type:uuid;not null;index" json:"voice_id"`
	Role          string         `gorm:"size:100" json:"role,omitempty"`
	CharacterName string         `gorm:"size:255;not null" json:"character_name"`
	SortOrder     int            `gorm:"default:0" json:"sort_order"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Voice   Voice   `gorm:"foreignKey:VoiceID;constraint:OnDelete:RESTRICT" json:"voice,omitempty"`
}

// ProjectTemplate is a reusable preset for bootstrapping new projects.
type ProjectTemplate struct {
	ID                     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID                 *string        `gorm:"type:uuid;index" json:"user_id,omitempty"` // NULL for built-in templates
	Name                   string         `gorm:"size:255;not null" json:"name"`
	GenreTone              string         `gorm:"size:255" json:"genre_tone,omitempty"`
	MusicalAtmosphere      string         `gorm:"size:255" json:"musical_atmosphere,omitempty"`
	IncludeSoundEffects    bool           `gorm:"default:true" json:"include_sound_effects"`
	IncludeBackgroundMusic bool           `gorm:"default:true" json:"include_background_music"`
	TargetDurationMinutes  int            `gorm:"default:10" json:"target_duration_minutes"`
	CoverStyle             string         `gorm:"size:100" json:"cover_style,omitempty"`
	CharactersJSON         string         `gorm:"type:text" json:"characters_json,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}
