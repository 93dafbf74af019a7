package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
	"gorm.io/gorm"
)

const defaultTestPhrase = "The old lighthouse keeper lit the lamp one last time."

type VoiceEndpoints struct {
	repo        *repository.GORMRepository
	elevenLabs  *ElevenLabsService
	sampleCache *SampleCache
	vault       *KeyVault
}

type VoiceRequest struct {
	Name              string `json:"name"`
	ElevenLabsVoiceID string `json:"elevenlabs_voice_id"`
	Description       string `json:"description"`
	IsFavorite        *bool  `json:"is_favorite"`
}

type VoiceTestRequest struct {
	Text string `json:"text"`
}

type VoiceImportRequest struct {
	VoiceIDs []string `json:"voice_ids"`
}

func NewVoiceEndpoints(repo *repository.GORMRepository, elevenLabs *ElevenLabsService, sampleCache *SampleCache, vault *KeyVault) *VoiceEndpoints {
	return &VoiceEndpoints{
		repo:        repo,
		elevenLabs:  elevenLabs,
		sampleCache: sampleCache,
		vault:       vault,
	}
}

func (e *VoiceEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/voices", func(r chi.Router) {
		r.Get("/", e.ListVoicesHandler)
		r.Post("/", e.CreateVoiceHandler)
		r.Get("/elevenlabs-available", e.AvailableVoicesHandler)
		r.Post("/import", e.ImportVoicesHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", e.UpdateVoiceHandler)
			r.Delete("/", e.DeleteVoiceHandler)
			r.Post("/test", e.TestVoiceHandler)
		})
	})
}

func (e *VoiceEndpoints) elevenLabsKey(user *models.User) string {
	if user.ElevenLabsAPIKey == "" {
		return ""
	}
	key, err := e.vault.Decrypt(user.ElevenLabsAPIKey)
	if err != nil {
		slog.Warn("Failed to decrypt ElevenLabs key, falling back to default", "user_id", user.ID, "error", err)
		return ""
	}
	return key
}

func (e *VoiceEndpoints) ListVoicesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	search := r.URL.Query().Get("search")
	favoritesOnly := r.URL.Query().Get("favorites") == "true"

	voices, err := e.repo.GetVoices(r.Context(), user.ID, search, favoritesOnly)
	if err != nil {
		slog.Error("Failed to list voices", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list voices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"voices": voices,
		"count":  len(voices),
	})
}

func (e *VoiceEndpoints) CreateVoiceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req VoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.ElevenLabsVoiceID == "" {
		http.Error(w, "Name and ElevenLabs voice ID are required", http.StatusBadRequest)
		return
	}

	voice := models.Voice{
		UserID:            user.ID,
		Name:              req.Name,
		ElevenLabsVoiceID: req.ElevenLabsVoiceID,
		Description:       req.Description,
	}
	if req.IsFavorite != nil {
		voice.IsFavorite = *req.IsFavorite
	}

	if err := e.repo.CreateVoice(r.Context(), &voice); err != nil {
		slog.Error("Failed to create voice", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create voice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(voice)

	slog.Info("Voice created", "voice_id", voice.ID, "user_id", user.ID, "name", voice.Name)
}

func (e *VoiceEndpoints) UpdateVoiceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	voice, err := e.repo.GetVoiceByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load voice", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load voice", http.StatusInternalServerError)
		return
	}
	if voice == nil {
		http.Error(w, "Voice not found", http.StatusNotFound)
		return
	}

	var req VoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		voice.Name = name
	}
	if req.ElevenLabsVoiceID != "" {
		voice.ElevenLabsVoiceID = req.ElevenLabsVoiceID
	}
	voice.Description = req.Description
	if req.IsFavorite != nil {
		voice.IsFavorite = *req.IsFavorite
	}

	if err := e.repo.UpdateVoice(r.Context(), voice); err != nil {
		slog.Error("Failed to update voice", "error", err, "voice_id", voice.ID)
		http.Error(w, "Failed to update voice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(voice)
}

func (e *VoiceEndpoints) DeleteVoiceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	voice, err := e.repo.GetVoiceByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load voice", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load voice", http.StatusInternalServerError)
		return
	}
	if voice == nil {
		http.Error(w, "Voice not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteVoice(r.Context(), voice.ID); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			http.Error(w, "Voice is used by a project character", http.StatusConflict)
			return
		}
		slog.Error("Failed to delete voice", "error", err, "voice_id", voice.ID)
		http.Error(w, "Failed to delete voice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Voice deleted",
	})
}

// TestVoiceHandler returns a short MP3 sample for the voice. Samples are
// cached by text and voice so auditioning is free after the first listen.
func (e *VoiceEndpoints) TestVoiceHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	voice, err := e.repo.GetVoiceByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load voice", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load voice", http.StatusInternalServerError)
		return
	}
	if voice == nil {
		http.Error(w, "Voice not found", http.StatusNotFound)
		return
	}

	var req VoiceTestRequest
	json.NewDecoder(r.Body).Decode(&req)
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = defaultTestPhrase
	}

	apiKey := e.elevenLabsKey(user)
	audio, err := e.sampleCache.GetOrGenerate(text, voice.ElevenLabsVoiceID, func() ([]byte, error) {
		return e.elevenLabs.TestVoice(r.Context(), apiKey, voice.ElevenLabsVoiceID, text)
	})
	if err != nil {
		slog.Error("Voice test failed", "error", err, "voice_id", voice.ID)
		http.Error(w, "Voice test failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

// AvailableVoicesHandler lists the voices on the user's ElevenLabs account.
func (e *VoiceEndpoints) AvailableVoicesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	voices, err := e.elevenLabs.GetVoices(r.Context(), e.elevenLabsKey(user))
	if err != nil {
		slog.Error("Failed to list account voices", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list ElevenLabs voices", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"voices": voices,
		"count":  len(voices),
	})
}

// ImportVoicesHandler copies selected account voices into the user's library.
// Voices already in the library are skipped.
func (e *VoiceEndpoints) ImportVoicesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req VoiceImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.VoiceIDs) == 0 {
		http.Error(w, "voice_ids is required", http.StatusBadRequest)
		return
	}

	accountVoices, err := e.elevenLabs.GetVoices(r.Context(), e.elevenLabsKey(user))
	if err != nil {
		slog.Error("Failed to list account voices", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list ElevenLabs voices", http.StatusBadGateway)
		return
	}

	byID := make(map[string]AccountVoice, len(accountVoices))
	for _, voice := range accountVoices {
		byID[voice.VoiceID] = voice
	}

	existing, err := e.repo.GetVoices(r.Context(), user.ID, "", false)
	if err != nil {
		slog.Error("Failed to list voices", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list voices", http.StatusInternalServerError)
		return
	}
	known := make(map[string]bool, len(existing))
	for _, voice := range existing {
		known[voice.ElevenLabsVoiceID] = true
	}

	var imported []models.Voice
	for _, voiceID := range req.VoiceIDs {
		accountVoice, found := byID[voiceID]
		if !found || known[voiceID] {
			continue
		}

		voice := models.Voice{
			UserID:            user.ID,
			Name:              accountVoice.Name,
			ElevenLabsName:    accountVoice.Name,
			ElevenLabsVoiceID: accountVoice.VoiceID,
			Description:       accountVoice.Description,
		}
		if err := e.repo.CreateVoice(r.Context(), &voice); err != nil {
			slog.Error("Failed to import voice", "error", err, "elevenlabs_voice_id", voiceID)
			continue
		}
		imported = append(imported, voice)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"imported": imported,
		"count":    len(imported),
	})

	slog.Info("Voices imported", "user_id", user.ID, "count", len(imported))
}
