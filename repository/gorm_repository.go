package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/heinercast/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.APIKey{},
		&models.Voice{},
		&models.Project{},
		&models.ProjectCharacter{},
		&models.ProjectTemplate{},
		&models.Episode{},
		&models.CoverStyle{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by username", "error", err, "username", username)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) UpdateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		slog.Error("Failed to update user", "error", err, "user_id", user.ID)
		return err
	}
	return nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// API key operations
func (r *GORMRepository) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		slog.Error("Failed to create API key", "error", err)
		return err
	}
	slog.Info("API key created", "key_id", key.ID, "user_id", key.UserID, "name", key.Name)
	return nil
}

func (r *GORMRepository) GetAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.WithContext(ctx).
		Where("key_hash = ? AND is_active = ?", keyHash, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&key).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get API key by hash", "error", err)
		return nil, err
	}
	return &key, nil
}

func (r *GORMRepository) GetAPIKeys(ctx context.Context, userID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error; err != nil {
		slog.Error("Failed to get API keys", "error", err, "user_id", userID)
		return nil, err
	}
	return keys, nil
}

func (r *GORMRepository) TouchAPIKey(ctx context.Context, keyID string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.APIKey{}).Where("id = ?", keyID).Update("last_used_at", now).Error; err != nil {
		slog.Error("Failed to update API key last_used_at", "error", err, "key_id", keyID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAPIKey(ctx context.Context, keyID, userID string) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", keyID, userID).Delete(&models.APIKey{}).Error; err != nil {
		slog.Error("Failed to delete API key", "error", err, "key_id", keyID)
		return err
	}
	return nil
}

// Voice operations
func (r *GORMRepository) CreateVoice(ctx context.Context, voice *models.Voice) error {
	if err := r.db.WithContext(ctx).Create(voice).Error; err != nil {
		slog.Error("Failed to create voice", "error", err)
		return err
	}
	slog.Info("Voice created", "voice_id", voice.ID, "name", voice.Name)
	return nil
}

func (r *GORMRepository) GetVoices(ctx context.Context, userID string, search string, favoritesOnly bool) ([]models.Voice, error) {
	var voices []models.Voice
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if favoritesOnly {
		query = query.Where("is_favorite = ?", true)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(name ILIKE ? OR elevenlabs_name ILIKE ?)", pattern, pattern)
	}

	if err := query.Order("is_favorite DESC, name").Find(&voices).Error; err != nil {
		slog.Error("Failed to get voices", "error", err, "user_id", userID)
		return nil, err
	}
	return voices, nil
}

func (r *GORMRepository) GetVoiceByID(ctx context.Context, voiceID, userID string) (*models.Voice, error) {
	var voice models.Voice
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", voiceID, userID).First(&voice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get voice by ID", "error", err, "voice_id", voiceID)
		return nil, err
	}
	return &voice, nil
}

func (r *GORMRepository) UpdateVoice(ctx context.Context, voice *models.Voice) error {
	if err := r.db.WithContext(ctx).Save(voice).Error; err != nil {
		slog.Error("Failed to update voice", "error", err, "voice_id", voice.ID)
		return err
	}
	return nil
}

// DeleteVoice removes a voice. The RESTRICT constraint on project characters
// rejects the delete while the voice is still cast; with TranslateError the
// driver error surfaces as gorm.ErrForeignKeyViolated for callers to map.
func (r *GORMRepository) DeleteVoice(ctx context.Context, voiceID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", voiceID).Delete(&models.Voice{}).Error; err != nil {
		slog.Error("Failed to delete voice", "error", err, "voice_id", voiceID)
		return err
	}
	slog.Info("Voice deleted", "voice_id", voiceID)
	return nil
}
