package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
)

// GenerationEndpoints exposes the pipeline steps. Each call validates the
// episode, then runs the step in the background; clients follow progress over
// the websocket or by polling the status endpoint.
type GenerationEndpoints struct {
	repo     *repository.GORMRepository
	pipeline *PipelineService
}

type CoverGenerationRequest struct {
	Variants int `json:"variants"`
}

func NewGenerationEndpoints(repo *repository.GORMRepository, pipeline *PipelineService) *GenerationEndpoints {
	return &GenerationEndpoints{repo: repo, pipeline: pipeline}
}

func (e *GenerationEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/generation", func(r chi.Router) {
		r.Post("/script/{id}", e.ScriptHandler)
		r.Post("/voiceover/{id}", e.VoiceoverHandler)
		r.Post("/sounds/{id}", e.SoundsHandler)
		r.Post("/music/{id}", e.MusicHandler)
		r.Post("/merge/{id}", e.MergeHandler)
		r.Post("/cover/{id}", e.CoverHandler)
		r.Post("/full/{id}", e.FullHandler)
		r.Get("/status/{id}", e.StatusHandler)
	})
}

// loadForGeneration fetches the episode and rejects the call when another
// step is already running on it.
func (e *GenerationEndpoints) loadForGeneration(w http.ResponseWriter, r *http.Request) (*models.Episode, *models.User, bool) {
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
	if IsGenerating(episode.Status) {
		http.Error(w, "Episode is busy generating", http.StatusConflict)
		return nil, nil, false
	}
	return episode, user, true
}

// accepted responds once the background step has been kicked off.
func accepted(w http.ResponseWriter, episode *models.Episode, step string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"episode_id": episode.ID,
		"step":       step,
		"message":    "Generation started",
	})
}

// runStep detaches the step from the request context so it survives the
// client disconnecting.
func (e *GenerationEndpoints) runStep(user *models.User, episode *models.Episode, step string, run func(context.Context) error) {
	go func() {
		if err := run(context.Background()); err != nil {
			slog.Error("Generation step finished with error", "episode_id", episode.ID, "step", step, "error", err)
		}
	}()
}

func (e *GenerationEndpoints) ScriptHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}

	e.runStep(user, episode, StepScript, func(ctx context.Context) error {
		return e.pipeline.GenerateScript(ctx, user, episode)
	})
	accepted(w, episode, StepScript)
}

func (e *GenerationEndpoints) VoiceoverHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}
	if episode.ScriptJSON == "" {
		http.Error(w, "Episode has no script yet", http.StatusBadRequest)
		return
	}

	e.runStep(user, episode, StepVoiceover, func(ctx context.Context) error {
		return e.pipeline.GenerateVoiceover(ctx, user, episode)
	})
	accepted(w, episode, StepVoiceover)
}

func (e *GenerationEndpoints) SoundsHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}
	if episode.ScriptJSON == "" {
		http.Error(w, "Episode has no script yet", http.StatusBadRequest)
		return
	}

	e.runStep(user, episode, StepSounds, func(ctx context.Context) error {
		return e.pipeline.GenerateSounds(ctx, user, episode)
	})
	accepted(w, episode, StepSounds)
}

func (e *GenerationEndpoints) MusicHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}
	if episode.IncludeBackgroundMusic && episode.VoiceAudioURL == "" {
		http.Error(w, "Episode has no voiceover yet", http.StatusBadRequest)
		return
	}

	e.runStep(user, episode, StepMusic, func(ctx context.Context) error {
		return e.pipeline.GenerateMusic(ctx, user, episode)
	})
	accepted(w, episode, StepMusic)
}

func (e *GenerationEndpoints) MergeHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}
	if episode.VoiceAudioURL == "" {
		http.Error(w, "Episode has no voiceover yet", http.StatusBadRequest)
		return
	}

	e.runStep(user, episode, StepMerge, func(ctx context.Context) error {
		return e.pipeline.MergeAudio(ctx, user, episode)
	})
	accepted(w, episode, StepMerge)
}

func (e *GenerationEndpoints) CoverHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}

	var req CoverGenerationRequest
	// An empty body means one variant
	json.NewDecoder(r.Body).Decode(&req)
	variants := ClampVariantCount(req.Variants)

	e.runStep(user, episode, StepCover, func(ctx context.Context) error {
		return e.pipeline.GenerateCover(ctx, user, episode, variants)
	})
	accepted(w, episode, StepCover)
}

func (e *GenerationEndpoints) FullHandler(w http.ResponseWriter, r *http.Request) {
	episode, user, ok := e.loadForGeneration(w, r)
	if !ok {
		return
	}

	var req CoverGenerationRequest
	json.NewDecoder(r.Body).Decode(&req)
	variants := ClampVariantCount(req.Variants)

	e.runStep(user, episode, "full", func(ctx context.Context) error {
		return e.pipeline.RunFull(ctx, user, episode, variants)
	})
	accepted(w, episode, "full")
}

func (e *GenerationEndpoints) StatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	episode, err := e.repo.GetEpisodeForUser(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load episode", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load episode", http.StatusInternalServerError)
		return
	}
	if episode == nil {
		http.Error(w, "Episode not found", http.StatusNotFound)
		return
	}

	steps := StepStates(episode)
	currentIndex := CurrentStepIndex(steps)
	currentStep := ""
	if currentIndex >= 0 {
		currentStep = steps[currentIndex].Name
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"episode_id":         episode.ID,
		"status":             episode.Status,
		"error_message":      episode.ErrorMessage,
		"steps":              steps,
		"current_step":       currentStep,
		"current_step_index": currentIndex,
	})
}
