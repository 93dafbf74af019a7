package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
	"golang.org/x/crypto/bcrypt"
)

// DatabaseSeeder installs the built-in cover styles, project templates, and a
// demo account with a starter voice library. Seeding is idempotent.
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

var defaultCoverStyles = []models.CoverStyle{
	{
		Key:          "cyberpunk_neon",
		Name:         "Cyberpunk Neon",
		Emoji:        "🌆",
		Instructions: "Neon-drenched cyberpunk cityscape, rain-slick streets, holographic signage, teal and magenta palette, cinematic lighting.",
		Mood:         "electric, futuristic",
		SortOrder:    1,
	},
	{
		Key:          "tech_noir",
		Name:         "Tech Noir",
		Emoji:        "🕵️",
		Instructions: "High-contrast noir composition with technological elements, deep shadows, a single cold light source, film grain.",
		Mood:         "tense, mysterious",
		SortOrder:    2,
	},
	{
		Key:          "dark_fantasy",
		Name:         "Dark Fantasy",
		Emoji:        "🐉",
		Instructions: "Painterly dark fantasy scene, ancient ruins, muted earth tones with a single vivid accent, dramatic sky.",
		Mood:         "epic, foreboding",
		SortOrder:    3,
	},
	{
		Key:          "cosmic_horror",
		Name:         "Cosmic Horror",
		Emoji:        "🐙",
		Instructions: "Vast incomprehensible cosmic entity looming over a tiny human figure, deep purples and blacks, unsettling geometry.",
		Mood:         "dread, awe",
		SortOrder:    4,
	},
	{
		Key:          "cozy_mystery",
		Name:         "Cozy Mystery",
		Emoji:        "🕯️",
		Instructions: "Warm candlelit interior, vintage details, soft focus, inviting amber tones with one curious out-of-place object.",
		Mood:         "warm, intriguing",
		SortOrder:    5,
	},
	{
		Key:          "retro_scifi",
		Name:         "Retro Sci-Fi",
		Emoji:        "🚀",
		Instructions: "1970s science fiction paperback style, bold geometric shapes, grainy airbrush texture, saturated sunset gradients.",
		Mood:         "nostalgic, adventurous",
		SortOrder:    6,
	},
	{
		Key:          "minimal_abstract",
		Name:         "Minimal Abstract",
		Emoji:        "◻️",
		Instructions: "Minimalist abstract composition, two or three flat colors, generous negative space, a single symbolic shape.",
		Mood:         "calm, modern",
		SortOrder:    7,
	},
}

var demoVoices = []models.Voice{
	{Name: "Rachel", ElevenLabsName: "Rachel", ElevenLabsVoiceID: "EXAVITQu4vr4xnSDxMaL", Description: "Calm narrator", IsFavorite: true},
	{Name: "Adam", ElevenLabsName: "Adam", ElevenLabsVoiceID: "pNInz6obpgDQGcFmaJgB", Description: "Deep male lead", IsFavorite: true},
	{Name: "Bella", ElevenLabsName: "Bella", ElevenLabsVoiceID: "AZnzlk1XvdvUeBnXmlld", Description: "Soft and expressive"},
	{Name: "Josh", ElevenLabsName: "Josh", ElevenLabsVoiceID: "VR6AewLTigWG4xSOukaG", Description: "Young male voice"},
}

var builtinTemplates = []models.ProjectTemplate{
	{
		Name:                   "Sci-Fi Audio Drama",
		GenreTone:              "Hard science fiction, tense and wondrous",
		MusicalAtmosphere:      "Ambient synth textures, slow pulsing pads",
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
		TargetDurationMinutes:  10,
		CoverStyle:             "retro_scifi",
	},
	{
		Name:                   "Detective Noir",
		GenreTone:              "Hardboiled detective noir, dry wit, slow burn",
		MusicalAtmosphere:      "Smoky jazz, muted trumpet, upright bass",
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
		TargetDurationMinutes:  12,
		CoverStyle:             "tech_noir",
	},
	{
		Name:                   "Bedtime Stories",
		GenreTone:              "Gentle fairy tales, soothing and kind",
		MusicalAtmosphere:      "Soft piano and music box, very quiet",
		IncludeSoundEffects:    false,
		IncludeBackgroundMusic: true,
		TargetDurationMinutes:  7,
		CoverStyle:             "cozy_mystery",
	},
}

// SeedDatabase seeds the database with initial data (idempotent).
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	if err := s.seedCoverStyles(ctx); err != nil {
		return err
	}
	if err := s.seedTemplates(ctx); err != nil {
		return err
	}
	if err := s.seedDemoUser(ctx); err != nil {
		return err
	}

	slog.Info("Database seeding completed")
	return nil
}

func (s *DatabaseSeeder) seedCoverStyles(ctx context.Context) error {
	for _, style := range defaultCoverStyles {
		existing, err := s.repo.GetCoverStyleByKey(ctx, style.Key)
		if err != nil {
			return fmt.Errorf("error checking cover style %s: %w", style.Key, err)
		}
		if existing != nil {
			continue
		}

		style.IsActive = true
		if err := s.repo.CreateCoverStyle(ctx, &style); err != nil {
			slog.Error("Failed to seed cover style", "key", style.Key, "error", err)
			continue
		}
		slog.Info("Created cover style", "key", style.Key)
	}
	return nil
}

func (s *DatabaseSeeder) seedTemplates(ctx context.Context) error {
	// Built-in templates have no owner; visible to every user
	existing, err := s.repo.GetProjectTemplates(ctx, "")
	if err != nil {
		return fmt.Errorf("error checking templates: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, template := range existing {
		if template.UserID == nil {
			known[template.Name] = true
		}
	}

	for _, template := range builtinTemplates {
		if known[template.Name] {
			continue
		}
		if err := s.repo.CreateProjectTemplate(ctx, &template); err != nil {
			slog.Error("Failed to seed template", "name", template.Name, "error", err)
			continue
		}
		slog.Info("Created template", "name", template.Name)
	}
	return nil
}

func (s *DatabaseSeeder) seedDemoUser(ctx context.Context) error {
	const demoEmail = "demo@example.com"

	existing, err := s.repo.GetUserByEmail(ctx, demoEmail)
	if err != nil {
		return fmt.Errorf("error checking demo user: %w", err)
	}
	if existing != nil {
		slog.Info("Demo user already exists, skipping")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        demoEmail,
		Username:     "demo",
		PasswordHash: string(hashedPassword),
		LLMProvider:  "openrouter",
		StorageType:  "local",
		Language:     "ru",
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	slog.Info("Created demo user", "email", user.Email)

	for _, voice := range demoVoices {
		voice.UserID = user.ID
		if err := s.repo.CreateVoice(ctx, &voice); err != nil {
			slog.Error("Failed to seed voice", "name", voice.Name, "error", err)
		}
	}
	return nil
}
