package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken, APIKey from user.go
// - Project, ProjectCharacter, ProjectTemplate from project.go
// - Episode (plus Script, SoundEffect, CoverVariant payload types) from episode.go
// - Voice, CoverStyle from voice.go

// Database schema overview:
// 1. users - Accounts plus per-user generation settings (provider, vendor keys, prompts)
// 2. refresh_tokens / api_keys - Cookie session refresh tokens and hashed API keys
// 3. projects - Audiobook series owned by a user, with generation flags
// 4. project_characters - Role-to-voice casting for a project (voice delete is restricted)
// 5. episodes - One generated audiobook unit; carries the pipeline status column
// 6. voices - Per-user library of ElevenLabs voices
// 7. cover_styles / project_templates - Seeded presets for covers and new projects
