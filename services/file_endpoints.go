package services

import (
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

const maxReferenceImageSize = 10 << 20 // 10MB

type FileEndpoints struct {
	repo    *repository.GORMRepository
	storage *StorageService
}

func NewFileEndpoints(repo *repository.GORMRepository, storage *StorageService) *FileEndpoints {
	return &FileEndpoints{repo: repo, storage: storage}
}

func (e *FileEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/files", func(r chi.Router) {
		r.Get("/episodes/{id}/audio", e.EpisodeAudioHandler)
		r.Get("/episodes/{id}/stream", e.StreamHandler)
		r.Get("/episodes/{id}/cover", e.EpisodeCoverHandler)
		r.Post("/episodes/{id}/reference", e.UploadReferenceHandler)
	})
}

// RegisterServeRoutes mounts raw file serving for storage URLs. This sits
// outside the API prefix so stored /files/... URLs resolve directly.
func (e *FileEndpoints) RegisterServeRoutes(r chi.Router) {
	r.Get("/files/{subfolder}/{name}", e.ServeHandler)
}

func (e *FileEndpoints) loadEpisode(w http.ResponseWriter, r *http.Request) (*models.Episode, bool) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return nil, false
	}

	episode, err := e.repo.GetEpisodeForUser(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load episode", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load episode", http.StatusInternalServerError)
		return nil, false
	}
	if episode == nil {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return nil, false
	}
	return episode, true
}

// EpisodeAudioHandler streams one of the episode's audio artifacts. Range
// requests are supported so players can seek.
func (e *FileEndpoints) EpisodeAudioHandler(w http.ResponseWriter, r *http.Request) {
	episode, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	var url string
	switch r.URL.Query().Get("format") {
	case "", "final":
		url = episode.FinalAudioURL
	case "voice":
		url = episode.VoiceAudioURL
	case "music":
		url = episode.MusicURL
	default:
		http.Error(w, "Unknown audio format", http.StatusBadRequest)
		return
	}
	if url == "" {
		http.Error(w, "Audio not generated yet", http.StatusNotFound)
		return
	}

	path, err := e.storage.PathForURL(url)
	if err != nil {
		slog.Error("Failed to resolve audio path", "error", err, "url", url)
		http.Error(w, "Audio file unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="episode-`+episode.ID+`.mp3"`)
	http.ServeFile(w, r, path)
}

// StreamHandler plays back the final mix in place. ServeFile honors Range
// requests, so players can seek without downloading the whole file.
func (e *FileEndpoints) StreamHandler(w http.ResponseWriter, r *http.Request) {
	episode, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if episode.FinalAudioURL == "" {
		http.Error(w, "Audio not generated yet", http.StatusNotFound)
		return
	}
	path, err := e.storage.PathForURL(episode.FinalAudioURL)
	if err != nil {
		slog.Error("Failed to resolve audio path", "error", err, "url", episode.FinalAudioURL)
		http.Error(w, "Audio file unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", "inline")
	http.ServeFile(w, r, path)
}

// EpisodeCoverHandler resolves a cover image. Covers are hosted by the
// vendor, so the response redirects; ?variant=N picks a specific candidate.
func (e *FileEndpoints) EpisodeCoverHandler(w http.ResponseWriter, r *http.Request) {
	episode, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	url := episode.CoverURL
	if variantParam := r.URL.Query().Get("variant"); variantParam != "" {
		index, err := strconv.Atoi(variantParam)
		if err != nil || episode.CoverVariantsJSON == "" {
			http.Error(w, "Variant not found", http.StatusNotFound)
			return
		}
		var variants []models.CoverVariant
		if err := json.Unmarshal([]byte(episode.CoverVariantsJSON), &variants); err != nil || index < 0 || index >= len(variants) {
			http.Error(w, "Variant not found", http.StatusNotFound)
			return
		}
		url = variants[index].URL
	}
	if url == "" {
		http.Error(w, "Cover not generated yet", http.StatusNotFound)
		return
	}

	if strings.HasPrefix(url, "/files/") {
		path, err := e.storage.PathForURL(url)
		if err != nil {
			http.Error(w, "Cover unavailable", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, path)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// UploadReferenceHandler accepts a reference image for cover generation.
func (e *FileEndpoints) UploadReferenceHandler(w http.ResponseWriter, r *http.Request) {
	episode, ok := e.loadEpisode(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxReferenceImageSize); err != nil {
		http.Error(w, "Image must be at most 10MB", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := "png"
	if dot := strings.LastIndex(header.Filename, "."); dot >= 0 {
		ext = strings.ToLower(header.Filename[dot+1:])
	}
	switch ext {
	case "png", "jpg", "jpeg", "webp":
	default:
		http.Error(w, "Unsupported image type", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxReferenceImageSize+1))
	if err != nil {
		slog.Error("Failed to read uploaded image", "error", err)
		http.Error(w, "Failed to read image", http.StatusInternalServerError)
		return
	}
	if len(data) > maxReferenceImageSize {
		http.Error(w, "Image must be at most 10MB", http.StatusRequestEntityTooLarge)
		return
	}

	// Replace any previous reference image
	if episode.CoverReferenceImageURL != "" {
		if err := e.storage.Delete(episode.CoverReferenceImageURL); err != nil {
			slog.Warn("Failed to delete old reference image", "error", err)
		}
	}

	url, err := e.storage.Save(data, "covers", ext)
	if err != nil {
		slog.Error("Failed to store reference image", "error", err)
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	episode.CoverReferenceImageURL = url
	if err := e.repo.UpdateEpisode(r.Context(), episode); err != nil {
		slog.Error("Failed to save reference image URL", "error", err, "episode_id", episode.ID)
		http.Error(w, "Failed to save image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"url": url,
	})

	slog.Info("Reference image uploaded", "episode_id", episode.ID, "size", len(data))
}

// ServeHandler serves raw stored files by URL path.
func (e *FileEndpoints) ServeHandler(w http.ResponseWriter, r *http.Request) {
	url := "/files/" + chi.URLParam(r, "subfolder") + "/" + chi.URLParam(r, "name")
	path, err := e.storage.PathForURL(url)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}
