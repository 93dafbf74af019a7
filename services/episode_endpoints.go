package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
)

type EpisodeEndpoints struct {
	repo    *repository.GORMRepository
	storage *StorageService
}

type EpisodeRequest struct {
	ProjectID              string `json:"project_id"`
	Title                  string `json:"title"`
	ShowEpisodeNumber      *bool  `json:"show_episode_number"`
	Description            string `json:"description"`
	TargetDurationMinutes  int    `json:"target_duration_minutes"`
	IncludeSoundEffects    *bool  `json:"include_sound_effects"`
	IncludeBackgroundMusic *bool  `json:"include_background_music"`
}

type ScriptEditRequest struct {
	Script models.Script `json:"script"`
}

type CoverSelectRequest struct {
	Index int `json:"index"`
}

func NewEpisodeEndpoints(repo *repository.GORMRepository, storage *StorageService) *EpisodeEndpoints {
	return &EpisodeEndpoints{repo: repo, storage: storage}
}

func (e *EpisodeEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/episodes", func(r chi.Router) {
		r.Get("/", e.ListEpisodesHandler)
		r.Post("/", e.CreateEpisodeHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", e.GetEpisodeHandler)
			r.Put("/", e.UpdateEpisodeHandler)
			r.Delete("/", e.DeleteEpisodeHandler)

			r.Post("/continuation", e.CreateContinuationHandler)
			r.Put("/script", e.EditScriptHandler)
			r.Delete("/audio", e.DeleteAudioHandler)

			r.Post("/cover/select", e.SelectCoverHandler)
			r.Delete("/cover/variants/{index}", e.DeleteCoverVariantHandler)
		})
	})
}

func (e *EpisodeEndpoints) loadEpisode(w http.ResponseWriter, r *http.Request) (*models.Episode, *models.User, bool) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return nil, nil, false
	}

	episode, err := e.repo.GetEpisodeForUser(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load episode", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load episode", http.StatusInternalServerError)
		return nil, nil, false
	}
	if episode == nil {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return nil, nil, false
	}
	return episode, user, true
}

func (e *EpisodeEndpoints) ListEpisodesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), projectID, user.ID)
	if err != nil || project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	episodes, err := e.repo.GetEpisodes(r.Context(), project.ID)
	if err != nil {
		slog.Error("Failed to list episodes", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to list episodes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"episodes": episodes,
		"count":    len(episodes),
	})
}

// CreateEpisodeHandler creates a draft episode. The first episode of a
// project starts fresh; later episodes are continuations and require the
// previous episode to be fully done so its summary can seed the next script.
func (e *EpisodeEndpoints) CreateEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req EpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProjectID == "" {
		http.Error(w, "project_id is required", http.StatusBadRequest)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), req.ProjectID, user.ID)
	if err != nil || project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	latest, err := e.repo.GetLatestEpisode(r.Context(), project.ID)
	if err != nil {
		slog.Error("Failed to load latest episode", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to load latest episode", http.StatusInternalServerError)
		return
	}

	episodeNumber := 1
	if latest != nil {
		if latest.Status != models.StatusDone {
			http.Error(w, "The previous episode must be finished before starting a continuation", http.StatusBadRequest)
			return
		}
		episodeNumber = latest.EpisodeNumber + 1
	}

	episode := models.Episode{
		ProjectID:              project.ID,
		EpisodeNumber:          episodeNumber,
		Title:                  strings.TrimSpace(req.Title),
		TitleAutoGenerated:     strings.TrimSpace(req.Title) == "",
		ShowEpisodeNumber:      true,
		Description:            req.Description,
		TargetDurationMinutes:  req.TargetDurationMinutes,
		IncludeSoundEffects:    project.IncludeSoundEffects,
		IncludeBackgroundMusic: project.IncludeBackgroundMusic,
		Status:                 models.StatusDraft,
	}
	if req.ShowEpisodeNumber != nil {
		episode.ShowEpisodeNumber = *req.ShowEpisodeNumber
	}
	if req.IncludeSoundEffects != nil {
		episode.IncludeSoundEffects = *req.IncludeSoundEffects
	}
	if req.IncludeBackgroundMusic != nil {
		episode.IncludeBackgroundMusic = *req.IncludeBackgroundMusic
	}
	if episode.TargetDurationMinutes <= 0 {
		episode.TargetDurationMinutes = 10
	}

	if err := e.repo.CreateEpisode(r.Context(), &episode); err != nil {
		slog.Error("Failed to create episode", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to create episode", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(episode)

	slog.Info("Episode created", "episode_id", episode.ID, "project_id", project.ID, "number", episode.EpisodeNumber)
}

// CreateContinuationHandler starts the next episode after a finished one.
// The parent must be the latest episode of its project and fully done, so its
// summary can seed the continuation script.
func (e *EpisodeEndpoints) CreateContinuationHandler(w http.ResponseWriter, r *http.Request) {
	parent, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if parent.Status != models.StatusDone {
		http.Error(w, "The previous episode must be finished before starting a continuation", http.StatusBadRequest)
		return
	}

	latest, err := e.repo.GetLatestEpisode(r.Context(), parent.ProjectID)
	if err != nil {
		slog.Error("Failed to load latest episode", "error", err, "project_id", parent.ProjectID)
		http.Error(w, "Failed to load latest episode", http.StatusInternalServerError)
		return
	}
	if latest == nil || latest.ID != parent.ID {
		http.Error(w, "Continuations can only start from the last episode", http.StatusBadRequest)
		return
	}

	// Body is optional; all fields have sensible defaults
	var req EpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	episode := models.Episode{
		ProjectID:              parent.ProjectID,
		EpisodeNumber:          parent.EpisodeNumber + 1,
		Title:                  strings.TrimSpace(req.Title),
		TitleAutoGenerated:     strings.TrimSpace(req.Title) == "",
		ShowEpisodeNumber:      parent.ShowEpisodeNumber,
		Description:            req.Description,
		TargetDurationMinutes:  req.TargetDurationMinutes,
		IncludeSoundEffects:    parent.IncludeSoundEffects,
		IncludeBackgroundMusic: parent.IncludeBackgroundMusic,
		Status:                 models.StatusDraft,
	}
	if req.ShowEpisodeNumber != nil {
		episode.ShowEpisodeNumber = *req.ShowEpisodeNumber
	}
	if req.IncludeSoundEffects != nil {
		episode.IncludeSoundEffects = *req.IncludeSoundEffects
	}
	if req.IncludeBackgroundMusic != nil {
		episode.IncludeBackgroundMusic = *req.IncludeBackgroundMusic
	}
	if episode.TargetDurationMinutes <= 0 {
		episode.TargetDurationMinutes = parent.TargetDurationMinutes
	}
	if episode.TargetDurationMinutes <= 0 {
		episode.TargetDurationMinutes = 10
	}

	if err := e.repo.CreateEpisode(r.Context(), &episode); err != nil {
		slog.Error("Failed to create continuation", "error", err, "parent_id", parent.ID)
		http.Error(w, "Failed to create episode", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(episode)

	slog.Info("Continuation created", "episode_id", episode.ID, "parent_id", parent.ID, "number", episode.EpisodeNumber)
}

func (e *EpisodeEndpoints) GetEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	episode, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)
}

func (e *EpisodeEndpoints) UpdateEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	episode, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if IsGenerating(episode.Status) {
		http.Error(w, "Episode is busy generating", http.StatusConflict)
		return
	}

	var req EpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		episode.Title = title
		episode.TitleAutoGenerated = false
	}
	episode.Description = req.Description
	if req.ShowEpisodeNumber != nil {
		episode.ShowEpisodeNumber = *req.ShowEpisodeNumber
	}
	if req.TargetDurationMinutes > 0 {
		episode.TargetDurationMinutes = req.TargetDurationMinutes
	}
	if req.IncludeSoundEffects != nil {
		episode.IncludeSoundEffects = *req.IncludeSoundEffects
	}
	if req.IncludeBackgroundMusic != nil {
		episode.IncludeBackgroundMusic = *req.IncludeBackgroundMusic
	}

	if err := e.repo.UpdateEpisode(r.Context(), episode); err != nil {
		slog.Error("Failed to update episode", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to update episode", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)
}

// DeleteEpisodeHandler removes an episode. Only the last episode of a
// project may be deleted so the continuation chain stays unbroken.
func (e *EpisodeEndpoints) DeleteEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if IsGenerating(episode.Status) {
		http.Error(w, "Episode is busy generating", http.StatusConflict)
		return
	}

	latest, err := e.repo.GetLatestEpisode(r.Context(), episode.ProjectID)
	if err != nil {
		slog.Error("Failed to load latest episode", "error", err, "project_id", episode.ProjectID)
		http.Error(w, "Failed to load latest episode", http.StatusInternalServerError)
		return
	}
	if latest == nil || latest.ID != episode.ID {
		http.Error(w, "Only the last episode of a project can be deleted", http.StatusBadRequest)
		return
	}

	e.deleteAudioFiles(episode)
	if err := e.repo.DeleteEpisode(r.Context(), episode.ID); err != nil {
		slog.Error("Failed to delete episode", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to delete episode", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Episode deleted",
	})

	slog.Info("Episode deleted", "episode_id", episode.ID, "user_id", user.ID)
}

// EditScriptHandler replaces the episode's script with a manually edited
// version. The episode returns to the script_done state; downstream audio is
// discarded since it no longer matches the script.
func (e *EpisodeEndpoints) EditScriptHandler(w http.ResponseWriter, r *http.Request) {
	episode, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if IsGenerating(episode.Status) {
		http.Error(w, "Episode is busy generating", http.StatusConflict)
		return
	}

	var req ScriptEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Script.Lines) == 0 {
		http.Error(w, "Script must have at least one line", http.StatusBadRequest)
		return
	}
	for i, line := range req.Script.Lines {
		if strings.TrimSpace(line.Speaker) == "" || strings.TrimSpace(line.Text) == "" {
			slog.Warn("Rejected script edit with empty line", "episode_id", episode.ID, "line", i)
			http.Error(w, "Every script line needs a speaker and text", http.StatusBadRequest)
			return
		}
	}

	scriptJSON, err := json.Marshal(req.Script)
	if err != nil {
		http.Error(w, "Invalid script", http.StatusBadRequest)
		return
	}

	e.deleteAudioFiles(episode)
	e.clearAudioFields(episode)

	episode.ScriptJSON = string(scriptJSON)
	episode.ScriptText = ScriptToText(&req.Script)
	episode.Status = models.StatusScriptDone
	episode.ErrorMessage = ""

	if err := e.repo.UpdateEpisode(r.Context(), episode); err != nil {
		slog.Error("Failed to save edited script", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to save script", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)

	slog.Info("Script edited", "episode_id", episode.ID, "lines", len(req.Script.Lines))
}

// DeleteAudioHandler discards all generated audio, returning the episode to
// the script_done state so audio steps can be rerun.
func (e *EpisodeEndpoints) DeleteAudioHandler(w http.ResponseWriter, r *http.Request) {
	episode, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if IsGenerating(episode.Status) {
		http.Error(w, "Episode is busy generating", http.StatusConflict)
		return
	}
	if episode.ScriptJSON == "" {
		http.Error(w, "Episode has no script yet", http.StatusBadRequest)
		return
	}

	e.deleteAudioFiles(episode)
	e.clearAudioFields(episode)
	episode.Status = models.StatusScriptDone
	episode.ErrorMessage = ""

	if err := e.repo.UpdateEpisode(r.Context(), episode); err != nil {
		slog.Error("Failed to reset episode audio", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to delete audio", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)

	slog.Info("Episode audio deleted", "episode_id", episode.ID)
}

func (e *EpisodeEndpoints) SelectCoverHandler(w http.ResponseWriter, r *http.Request) {
	episode, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	var req CoverSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	variants, err := e.coverVariants(episode)
	if err != nil || len(variants) == 0 {
		http.Error(w, "Episode has no cover variants", http.StatusBadRequest)
		return
	}
	if req.Index < 0 || req.Index >= len(variants) {
		http.Error(w, "Variant index out of range", http.StatusBadRequest)
		return
	}

	for i := range variants {
		variants[i].Selected = i == req.Index
	}
	episode.CoverURL = variants[req.Index].URL
	if err := e.saveCoverVariants(r.Context(), episode, variants); err != nil {
		slog.Error("Failed to select cover", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to select cover", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)
}

func (e *EpisodeEndpoints) DeleteCoverVariantHandler(w http.ResponseWriter, r *http.Request) {
	episode, _, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	variants, err := e.coverVariants(episode)
	if err != nil || len(variants) == 0 {
		http.Error(w, "Episode has no cover variants", http.StatusBadRequest)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(variants) {
		http.Error(w, "Variant index out of range", http.StatusBadRequest)
		return
	}

	wasSelected := variants[index].Selected
	variants = append(variants[:index], variants[index+1:]...)

	if wasSelected {
		episode.CoverURL = ""
		if len(variants) > 0 {
			variants[0].Selected = true
			episode.CoverURL = variants[0].URL
		}
	}

	if err := e.saveCoverVariants(r.Context(), episode, variants); err != nil {
		slog.Error("Failed to delete cover variant", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to delete cover variant", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(episode)
}

func (e *EpisodeEndpoints) coverVariants(episode *models.Episode) ([]models.CoverVariant, error) {
	if episode.CoverVariantsJSON == "" {
		return nil, nil
	}
	var variants []models.CoverVariant
	if err := json.Unmarshal([]byte(episode.CoverVariantsJSON), &variants); err != nil {
		return nil, err
	}
	return variants, nil
}

func (e *EpisodeEndpoints) saveCoverVariants(ctx context.Context, episode *models.Episode, variants []models.CoverVariant) error {
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return err
	}
	episode.CoverVariantsJSON = string(variantsJSON)
	return e.repo.UpdateEpisode(ctx, episode)
}

// deleteAudioFiles best-effort removes stored audio; missing files are fine.
func (e *EpisodeEndpoints) deleteAudioFiles(episode *models.Episode) {
	urls := []string{episode.VoiceAudioURL, episode.MusicURL, episode.FinalAudioURL}

	if episode.SoundsJSON != "" {
		var effects []models.SoundEffect
		if err := json.Unmarshal([]byte(episode.SoundsJSON), &effects); err == nil {
			for _, effect := range effects {
				urls = append(urls, effect.URL)
			}
		}
	}

	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := e.storage.Delete(url); err != nil {
			slog.Warn("Failed to delete stored audio", "url", url, "error", err)
		}
	}
}

func (e *EpisodeEndpoints) clearAudioFields(episode *models.Episode) {
	episode.VoiceAudioURL = ""
	episode.VoiceAudioDuration = 0
	episode.VoiceTimestampsJSON = ""
	episode.SoundsJSON = ""
	episode.MusicURL = ""
	episode.MusicCompositionPlan = ""
	episode.FinalAudioURL = ""
	episode.FinalAudioDuration = 0
}
