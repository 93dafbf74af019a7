package models

import (
	"time"

	"gorm.io/gorm"
)

// Voice is an entry in a user's personal voice library, pointing at an
// ElevenLabs voice.
type Voice struct {
	ID                string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID            string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Name              string         `gorm:"size:255;not null" json:"name"`
	ElevenLabsName    string         `gorm:"size:255" json:"elevenlabs_name,omitempty"`
	ElevenLabsVoiceID string         `gorm:"size:100;not null" json:"elevenlabs_voice_id"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	IsFavorite        bool           `gorm:"default:false" json:"is_favorite"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// CoverStyle is a seeded preset of art direction for cover generation.
type CoverStyle struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Key          string         `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Emoji        string         `gorm:"size:10" json:"emoji,omitempty"`
	Instructions string         `gorm:"type:text" json:"instructions"`
	Mood         string         `gorm:"size:255" json:"mood,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	SortOrder    int            `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
