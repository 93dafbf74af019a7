package repository

import (
	"context"
	"log/slog"

	"github.com/heinercast/backend/models"
	"gorm.io/gorm"
)

// Project operations

func (r *GORMRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		slog.Error("Failed to create project", "error", err)
		return err
	}
	slog.Info("Project created", "project_id", project.ID, "user_id", project.UserID, "title", project.Title)
	return nil
}

func (r *GORMRepository) GetProjects(ctx context.Context, userID string, page, pageSize int) ([]models.Project, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		slog.Error("Failed to count projects", "error", err, "user_id", userID)
		return nil, 0, err
	}

	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	if err != nil {
		slog.Error("Failed to get projects", "error", err, "user_id", userID)
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *GORMRepository) GetProjectByID(ctx context.Context, projectID, userID string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get project by ID", "error", err, "project_id", projectID, "user_id", userID)
		return nil, err
	}
	return &project, nil
}

func (r *GORMRepository) GetProjectWithDetails(ctx context.Context, projectID, userID string) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, userID).
		Preload("Characters", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Characters.Voice").
		Preload("Episodes", func(db *gorm.DB) *gorm.DB { return db.Order("episode_number") }).
		First(&project).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get project with details", "error", err, "project_id", projectID, "user_id", userID)
		return nil, err
	}
	return &project, nil
}

func (r *GORMRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		slog.Error("Failed to update project", "error", err, "project_id", project.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteProject(ctx context.Context, projectID string) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.Episode{}).Error; err != nil {
		slog.Error("Failed to delete project episodes", "error", err, "project_id", projectID)
		return err
	}
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectCharacter{}).Error; err != nil {
		slog.Error("Failed to delete project characters", "error", err, "project_id", projectID)
		return err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", projectID).Delete(&models.Project{}).Error; err != nil {
		slog.Error("Failed to delete project", "error", err, "project_id", projectID)
		return err
	}
	slog.Info("Project deleted", "project_id", projectID)
	return nil
}

// Character operations

func (r *GORMRepository) CreateCharacter(ctx context.Context, character *models.ProjectCharacter) error {
	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		slog.Error("Failed to create character", "error", err)
		return err
	}
	slog.Info("Character created", "character_id", character.ID, "project_id", character.ProjectID, "name", character.CharacterName)
	return nil
}

func (r *GORMRepository) GetCharacters(ctx context.Context, projectID string) ([]models.ProjectCharacter, error) {
	var characters []models.ProjectCharacter
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Preload("Voice").
		Order("sort_order").
		Find(&characters).Error
	if err != nil {
		slog.Error("Failed to get characters", "error", err, "project_id", projectID)
		return nil, err
	}
	return characters, nil
}

func (r *GORMRepository) CountCharacters(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProjectCharacter{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		slog.Error("Failed to count characters", "error", err, "project_id", projectID)
		return 0, err
	}
	return count, nil
}

func (r *GORMRepository) GetCharacterByID(ctx context.Context, characterID, projectID string) (*models.ProjectCharacter, error) {
	var character models.ProjectCharacter
	err := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", characterID, projectID).
		Preload("Voice").
		First(&character).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get character by ID", "error", err, "character_id", characterID)
		return nil, err
	}
	return &character, nil
}

func (r *GORMRepository) UpdateCharacter(ctx context.Context, character *models.ProjectCharacter) error {
	if err := r.db.WithContext(ctx).Save(character).Error; err != nil {
		slog.Error("Failed to update character", "error", err, "character_id", character.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteCharacter(ctx context.Context, characterID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", characterID).Delete(&models.ProjectCharacter{}).Error; err != nil {
		slog.Error("Failed to delete character", "error", err, "character_id", characterID)
		return err
	}
	return nil
}

// Episode operations

func (r *GORMRepository) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Create(episode).Error; err != nil {
		slog.Error("Failed to create episode", "error", err)
		return err
	}
	slog.Info("Episode created", "episode_id", episode.ID, "project_id", episode.ProjectID, "episode_number", episode.EpisodeNumber)
	return nil
}

// GetEpisodeForUser loads an episode and verifies ownership through the
// parent project in one query.
func (r *GORMRepository) GetEpisodeForUser(ctx context.Context, episodeID, userID string) (*models.Episode, error) {
	var episode models.Episode
	err := r.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = episodes.project_id").
		Where("episodes.id = ? AND projects.user_id = ?", episodeID, userID).
		Preload("Project").
		First(&episode).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get episode", "error", err, "episode_id", episodeID, "user_id", userID)
		return nil, err
	}
	return &episode, nil
}

func (r *GORMRepository) GetEpisodes(ctx context.Context, projectID string) ([]models.Episode, error) {
	var episodes []models.Episode
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("episode_number").Find(&episodes).Error
	if err != nil {
		slog.Error("Failed to get episodes", "error", err, "project_id", projectID)
		return nil, err
	}
	return episodes, nil
}

func (r *GORMRepository) GetLatestEpisode(ctx context.Context, projectID string) (*models.Episode, error) {
	var episode models.Episode
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("episode_number DESC").First(&episode).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get latest episode", "error", err, "project_id", projectID)
		return nil, err
	}
	return &episode, nil
}

func (r *GORMRepository) UpdateEpisode(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Save(episode).Error; err != nil {
		slog.Error("Failed to update episode", "error", err, "episode_id", episode.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteEpisode(ctx context.Context, episodeID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", episodeID).Delete(&models.Episode{}).Error; err != nil {
		slog.Error("Failed to delete episode", "error", err, "episode_id", episodeID)
		return err
	}
	slog.Info("Episode deleted", "episode_id", episodeID)
	return nil
}

// Cover style operations

func (r *GORMRepository) CreateCoverStyle(ctx context.Context, style *models.CoverStyle) error {
	if err := r.db.WithContext(ctx).Create(style).Error; err != nil {
		slog.Error("Failed to create cover style", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetCoverStyles(ctx context.Context) ([]models.CoverStyle, error) {
	var styles []models.CoverStyle
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order").Find(&styles).Error
	if err != nil {
		slog.Error("Failed to get cover styles", "error", err)
		return nil, err
	}
	return styles, nil
}

func (r *GORMRepository) GetCoverStyleByKey(ctx context.Context, key string) (*models.CoverStyle, error) {
	var style models.CoverStyle
	err := r.db.WithContext(ctx).Where("key = ? AND is_active = ?", key, true).First(&style).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get cover style", "error", err, "key", key)
		return nil, err
	}
	return &style, nil
}

// Template operations

func (r *GORMRepository) CreateProjectTemplate(ctx context.Context, template *models.ProjectTemplate) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		slog.Error("Failed to create project template", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetProjectTemplates(ctx context.Context, userID string) ([]models.ProjectTemplate, error) {
	var templates []models.ProjectTemplate
	err := r.db.WithContext(ctx).
		Where("(user_id IS NULL OR user_id = ?)", userID).
		Order("name").
		Find(&templates).Error
	if err != nil {
		slog.Error("Failed to get project templates", "error", err, "user_id", userID)
		return nil, err
	}
	return templates, nil
}

func (r *GORMRepository) GetProjectTemplateByID(ctx context.Context, templateID, userID string) (*models.ProjectTemplate, error) {
	var template models.ProjectTemplate
	err := r.db.WithContext(ctx).
		Where("id = ? AND (user_id IS NULL OR user_id = ?)", templateID, userID).
		First(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get project template", "error", err, "template_id", templateID)
		return nil, err
	}
	return &template, nil
}
