package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
)

// Temp files older than this are eligible for cleanup.
const tempFileMaxAge = 24 * time.Hour

type SettingsEndpoints struct {
	repo        *repository.GORMRepository
	vault       *KeyVault
	storage     *StorageService
	sampleCache *SampleCache
	config      *Config
}

type UserSettingsRequest struct {
	LLMProvider         *string `json:"llm_provider"`
	LLMModel            *string `json:"llm_model"`
	LLMAPIKey           *string `json:"llm_api_key"`
	ElevenLabsAPIKey    *string `json:"elevenlabs_api_key"`
	KieAIAPIKey         *string `json:"kieai_api_key"`
	StorageType         *string `json:"storage_type"`
	AIWriterPrompt      *string `json:"ai_writer_prompt"`
	CoverPromptTemplate *string `json:"cover_prompt_template"`
	Language            *string `json:"language"`
}

func NewSettingsEndpoints(repo *repository.GORMRepository, vault *KeyVault, storage *StorageService, sampleCache *SampleCache, config *Config) *SettingsEndpoints {
	return &SettingsEndpoints{
		repo:        repo,
		vault:       vault,
		storage:     storage,
		sampleCache: sampleCache,
		config:      config,
	}
}

func (e *SettingsEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/providers", e.ProvidersHandler)
		r.Get("/languages", e.LanguagesHandler)
		r.Get("/app-info", e.AppInfoHandler)
		r.Get("/storage-stats", e.StorageStatsHandler)
		r.Post("/cleanup-temp", e.CleanupTempHandler)
		r.Get("/default-prompts", e.DefaultPromptsHandler)
		r.Get("/cover-styles", e.CoverStylesHandler)
	})

	r.Route("/users/settings", func(r chi.Router) {
		r.Get("/", e.GetUserSettingsHandler)
		r.Put("/", e.UpdateUserSettingsHandler)
	})
}

func (e *SettingsEndpoints) ProvidersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"providers": LLMProviders,
	})
}

func (e *SettingsEndpoints) LanguagesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"languages": SupportedLanguages,
	})
}

func (e *SettingsEndpoints) AppInfoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"name":        e.config.App.Name,
		"environment": e.config.App.Env,
		"url":         e.config.App.URL,
	})
}

func (e *SettingsEndpoints) StorageStatsHandler(w http.ResponseWriter, r *http.Request) {
	fileCount, totalSize, err := e.storage.Stats()
	if err != nil {
		slog.Error("Failed to read storage stats", "error", err)
		http.Error(w, "Failed to read storage stats", http.StatusInternalServerError)
		return
	}

	cacheCount, cacheSize, err := e.sampleCache.GetCacheStats()
	if err != nil {
		slog.Error("Failed to read cache stats", "error", err)
		http.Error(w, "Failed to read cache stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"file_count":         fileCount,
		"total_size_bytes":   totalSize,
		"sample_cache_count": cacheCount,
		"sample_cache_bytes": cacheSize,
	})
}

func (e *SettingsEndpoints) CleanupTempHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := e.storage.CleanupTemp(tempFileMaxAge)
	if err != nil {
		slog.Error("Temp cleanup failed", "error", err)
		http.Error(w, "Temp cleanup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"removed": removed,
		"message": "Temp storage cleaned",
	})
}

func (e *SettingsEndpoints) DefaultPromptsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ai_writer_prompt":      DefaultAIWriterPrompt,
		"cover_prompt_template": DefaultCoverPromptTemplate,
	})
}

func (e *SettingsEndpoints) CoverStylesHandler(w http.ResponseWriter, r *http.Request) {
	styles, err := e.repo.GetCoverStyles(r.Context())
	if err != nil {
		slog.Error("Failed to list cover styles", "error", err)
		http.Error(w, "Failed to list cover styles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cover_styles": styles,
		"count":        len(styles),
	})
}

// GetUserSettingsHandler returns the user's generation settings. Vendor keys
// are decrypted only to produce a masked preview; the plain values never
// leave the server.
func (e *SettingsEndpoints) GetUserSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	masked := func(encrypted string) string {
		if encrypted == "" {
			return ""
		}
		plain, err := e.vault.Decrypt(encrypted)
		if err != nil {
			slog.Warn("Failed to decrypt vendor key for masking", "user_id", user.ID, "error", err)
			return "****"
		}
		return MaskSecret(plain)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"llm_provider":          user.LLMProvider,
		"llm_model":             user.LLMModel,
		"llm_api_key":           masked(user.LLMAPIKey),
		"elevenlabs_api_key":    masked(user.ElevenLabsAPIKey),
		"kieai_api_key":         masked(user.KieAIAPIKey),
		"storage_type":          user.StorageType,
		"ai_writer_prompt":      user.AIWriterPrompt,
		"cover_prompt_template": user.CoverPromptTemplate,
		"language":              user.Language,
	})
}

// UpdateUserSettingsHandler applies partial updates. Vendor keys are
// encrypted at rest; sending an empty string clears a key.
func (e *SettingsEndpoints) UpdateUserSettingsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req UserSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.LLMProvider != nil {
		if _, known := LLMProviders[*req.LLMProvider]; !known {
			http.Error(w, "Unknown LLM provider", http.StatusBadRequest)
			return
		}
		user.LLMProvider = *req.LLMProvider
	}
	if req.Language != nil {
		supported := false
		for _, language := range SupportedLanguages {
			if language == *req.Language {
				supported = true
				break
			}
		}
		if !supported {
			http.Error(w, "Unsupported language", http.StatusBadRequest)
			return
		}
		user.Language = *req.Language
	}
	if req.LLMModel != nil {
		user.LLMModel = *req.LLMModel
	}
	if req.StorageType != nil {
		user.StorageType = *req.StorageType
	}
	if req.AIWriterPrompt != nil {
		user.AIWriterPrompt = *req.AIWriterPrompt
	}
	if req.CoverPromptTemplate != nil {
		user.CoverPromptTemplate = *req.CoverPromptTemplate
	}

	encrypt := func(plain string) (string, bool) {
		if plain == "" {
			return "", true
		}
		encrypted, err := e.vault.Encrypt(plain)
		if err != nil {
			slog.Error("Failed to encrypt vendor key", "user_id", user.ID, "error", err)
			return "", false
		}
		return encrypted, true
	}

	if req.LLMAPIKey != nil {
		encrypted, ok := encrypt(*req.LLMAPIKey)
		if !ok {
			http.Error(w, "Failed to store API key", http.StatusInternalServerError)
			return
		}
		user.LLMAPIKey = encrypted
	}
	if req.ElevenLabsAPIKey != nil {
		encrypted, ok := encrypt(*req.ElevenLabsAPIKey)
		if !ok {
			http.Error(w, "Failed to store API key", http.StatusInternalServerError)
			return
		}
		user.ElevenLabsAPIKey = encrypted
	}
	if req.KieAIAPIKey != nil {
		encrypted, ok := encrypt(*req.KieAIAPIKey)
		if !ok {
			http.Error(w, "Failed to store API key", http.StatusInternalServerError)
			return
		}
		user.KieAIAPIKey = encrypted
	}

	if err := e.repo.UpdateUser(r.Context(), user); err != nil {
		slog.Error("Failed to update user settings", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Settings updated",
	})

	slog.Info("User settings updated", "user_id", user.ID)
}
