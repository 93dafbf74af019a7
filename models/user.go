package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Username     string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string `gorm:"size:255" json:"-"`

	// Generation settings
	LLMProvider      string `gorm:"size:50;default:'openrouter'" json:"llm_provider"`
	LLMAPIKey        string `gorm:"size:500" json:"-"` // Encrypted at rest
	LLMModel         string `gorm:"size:100" json:"llm_model,omitempty"`
	ElevenLabsAPIKey string `gorm:"size:500" json:"-"` // Encrypted at rest
	KieAIAPIKey      string `gorm:"size:500" json:"-"` // Encrypted at rest

	StorageType         string `gorm:"size:50;default:'local'" json:"storage_type"`
	AIWriterPrompt      string `gorm:"type:text" json:"ai_writer_prompt,omitempty"`
	CoverPromptTemplate string `gorm:"type:text" json:"cover_prompt_template,omitempty"`
	Language            string `gorm:"size:10;default:'ru'" json:"language"`
	IsActive            bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Projects      []Project      `gorm:"foreignKey:UserID" json:"projects,omitempty"`
	Voices        []Voice        `gorm:"foreignKey:UserID" json:"voices,omitempty"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"refresh_tokens,omitempty"`
	APIKeys       []APIKey       `gorm:"foreignKey:UserID" json:"api_keys,omitempty"`
}

type RefreshToken struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// APIKey stores only the SHA-256 hash of an issued key; the plain key is
// shown to the user once at creation time.
type APIKey struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     string         `gorm:"type:uuid;not null;index" json:"user_id"`
	KeyHash    string         `gorm:"uniqueIndex;not null" json:"-"`
	Name       string         `gorm:"size:100;not null" json:"name"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	LastUsedAt *time.Time     `json:"last_used_at,omitempty"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
