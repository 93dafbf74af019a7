package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
)

// A project's cast is capped; dialogue quality degrades with too many voices.
const maxCharactersPerProject = 5

type ProjectEndpoints struct {
	repo *repository.GORMRepository
}

type ProjectRequest struct {
	Title                  string `json:"title"`
	Description            string `json:"description"`
	GenreTone              string `json:"genre_tone"`
	MusicalAtmosphere      string `json:"musical_atmosphere"`
	IncludeSoundEffects    *bool  `json:"include_sound_effects"`
	IncludeBackgroundMusic *bool  `json:"include_background_music"`
	CoverPrompt            string `json:"cover_prompt"`
	TemplateID             string `json:"template_id,omitempty"`
}

type CharacterRequest struct {
	VoiceID       string `json:"voice_id"`
	CharacterName string `json:"character_name"`
	Role          string `json:"role"`
	SortOrder     int    `json:"sort_order"`
}

type TemplateRequest struct {
	Name                   string `json:"name"`
	GenreTone              string `json:"genre_tone"`
	MusicalAtmosphere      string `json:"musical_atmosphere"`
	IncludeSoundEffects    *bool  `json:"include_sound_effects"`
	IncludeBackgroundMusic *bool  `json:"include_background_music"`
	TargetDurationMinutes  int    `json:"target_duration_minutes"`
	CoverStyle             string `json:"cover_style"`
	CharactersJSON         string `json:"characters_json"`
}

func NewProjectEndpoints(repo *repository.GORMRepository) *ProjectEndpoints {
	return &ProjectEndpoints{repo: repo}
}

func (e *ProjectEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", e.ListProjectsHandler)
		r.Post("/", e.CreateProjectHandler)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", e.ListTemplatesHandler)
			r.Post("/", e.CreateTemplateHandler)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", e.GetProjectHandler)
			r.Put("/", e.UpdateProjectHandler)
			r.Delete("/", e.DeleteProjectHandler)

			r.Route("/characters", func(r chi.Router) {
				r.Get("/", e.ListCharactersHandler)
				r.Post("/", e.CreateCharacterHandler)
				r.Put("/{characterID}", e.UpdateCharacterHandler)
				r.Delete("/{characterID}", e.DeleteCharacterHandler)
			})
		})
	})
}

func (e *ProjectEndpoints) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	projects, total, err := e.repo.GetProjects(r.Context(), user.ID, page, pageSize)
	if err != nil {
		slog.Error("Failed to list projects", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"projects":  projects,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (e *ProjectEndpoints) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	project := models.Project{
		UserID:                 user.ID,
		Title:                  req.Title,
		Description:            req.Description,
		GenreTone:              req.GenreTone,
		MusicalAtmosphere:      req.MusicalAtmosphere,
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
		CoverPrompt:            req.CoverPrompt,
	}
	if req.IncludeSoundEffects != nil {
		project.IncludeSoundEffects = *req.IncludeSoundEffects
	}
	if req.IncludeBackgroundMusic != nil {
		project.IncludeBackgroundMusic = *req.IncludeBackgroundMusic
	}

	// A template pre-fills any settings the request left empty
	if req.TemplateID != "" {
		template, err := e.repo.GetProjectTemplateByID(r.Context(), req.TemplateID, user.ID)
		if err != nil {
			slog.Error("Failed to load template", "error", err, "template_id", req.TemplateID)
			http.Error(w, "Failed to load template", http.StatusInternalServerError)
			return
		}
		if template == nil {
			http.Error(w, "Template not found", http.StatusNotFound)
			return
		}
		if project.GenreTone == "" {
			project.GenreTone = template.GenreTone
		}
		if project.MusicalAtmosphere == "" {
			project.MusicalAtmosphere = template.MusicalAtmosphere
		}
		if project.CoverPrompt == "" {
			project.CoverPrompt = template.CoverStyle
		}
		if req.IncludeSoundEffects == nil {
			project.IncludeSoundEffects = template.IncludeSoundEffects
		}
		if req.IncludeBackgroundMusic == nil {
			project.IncludeBackgroundMusic = template.IncludeBackgroundMusic
		}
	}

	if err := e.repo.CreateProject(r.Context(), &project); err != nil {
		slog.Error("Failed to create project", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(project)

	slog.Info("Project created", "project_id", project.ID, "user_id", user.ID, "title", project.Title)
}

func (e *ProjectEndpoints) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectWithDetails(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load project", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load project", http.StatusInternalServerError)
		return
	}
	if project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

func (e *ProjectEndpoints) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load project", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load project", http.StatusInternalServerError)
		return
	}
	if project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		project.Title = title
	}
	project.Description = req.Description
	project.GenreTone = req.GenreTone
	project.MusicalAtmosphere = req.MusicalAtmosphere
	project.CoverPrompt = req.CoverPrompt
	if req.IncludeSoundEffects != nil {
		project.IncludeSoundEffects = *req.IncludeSoundEffects
	}
	if req.IncludeBackgroundMusic != nil {
		project.IncludeBackgroundMusic = *req.IncludeBackgroundMusic
	}

	if err := e.repo.UpdateProject(r.Context(), project); err != nil {
		slog.Error("Failed to update project", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to update project", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

func (e *ProjectEndpoints) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		slog.Error("Failed to load project", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to load project", http.StatusInternalServerError)
		return
	}
	if project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteProject(r.Context(), project.ID); err != nil {
		slog.Error("Failed to delete project", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Project deleted",
	})

	slog.Info("Project deleted", "project_id", project.ID, "user_id", user.ID)
}

func (e *ProjectEndpoints) ListCharactersHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil || project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	characters, err := e.repo.GetCharacters(r.Context(), project.ID)
	if err != nil {
		slog.Error("Failed to list characters", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to list characters", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"characters": characters,
		"count":      len(characters),
	})
}

func (e *ProjectEndpoints) CreateCharacterHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil || project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	var req CharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.CharacterName = strings.TrimSpace(req.CharacterName)
	if req.CharacterName == "" || req.VoiceID == "" {
		http.Error(w, "Character name and voice are required", http.StatusBadRequest)
		return
	}

	count, err := e.repo.CountCharacters(r.Context(), project.ID)
	if err != nil {
		slog.Error("Failed to count characters", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to count characters", http.StatusInternalServerError)
		return
	}
	if count >= maxCharactersPerProject {
		http.Error(w, "A project can have at most 5 characters", http.StatusBadRequest)
		return
	}

	voice, err := e.repo.GetVoiceByID(r.Context(), req.VoiceID, user.ID)
	if err != nil {
		slog.Error("Failed to load voice", "error", err, "voice_id", req.VoiceID)
		http.Error(w, "Failed to load voice", http.StatusInternalServerError)
		return
	}
	if voice == nil {
		http.Error(w, "Voice not found", http.StatusNotFound)
		return
	}

	character := models.ProjectCharacter{
		ProjectID:     project.ID,
		VoiceID:       voice.ID,
		CharacterName: req.CharacterName,
		Role:          req.Role,
		SortOrder:     req.SortOrder,
	}
	if err := e.repo.CreateCharacter(r.Context(), &character); err != nil {
		slog.Error("Failed to create character", "error", err, "project_id", project.ID)
		http.Error(w, "Failed to create character", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(character)

	slog.Info("Character created", "character_id", character.ID, "project_id", project.ID, "name", character.CharacterName)
}

func (e *ProjectEndpoints) UpdateCharacterHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil || project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	character, err := e.repo.GetCharacterByID(r.Context(), chi.URLParam(r, "characterID"), project.ID)
	if err != nil {
		slog.Error("Failed to load character", "error", err)
		http.Error(w, "Failed to load character", http.StatusInternalServerError)
		return
	}
	if character == nil {
		http.Error(w, "Character not found", http.StatusNotFound)
		return
	}

	var req CharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if name := strings.TrimSpace(req.CharacterName); name != "" {
		character.CharacterName = name
	}
	character.Role = req.Role
	character.SortOrder = req.SortOrder
	if req.VoiceID != "" && req.VoiceID != character.VoiceID {
		voice, err := e.repo.GetVoiceByID(r.Context(), req.VoiceID, user.ID)
		if err != nil || voice == nil {
			http.Error(w, "Voice not found", http.StatusNotFound)
			return
		}
		character.VoiceID = voice.ID
	}

	if err := e.repo.UpdateCharacter(r.Context(), character); err != nil {
		slog.Error("Failed to update character", "error", err, "character_id", character.ID)
		http.Error(w, "Failed to update character", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(character)
}

func (e *ProjectEndpoints) DeleteCharacterHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	project, err := e.repo.GetProjectByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil || project == nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	character, err := e.repo.GetCharacterByID(r.Context(), chi.URLParam(r, "characterID"), project.ID)
	if err != nil {
		slog.Error("Failed to load character", "error", err)
		http.Error(w, "Failed to load character", http.StatusInternalServerError)
		return
	}
	if character == nil {
		http.Error(w, "Character not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteCharacter(r.Context(), character.ID); err != nil {
		slog.Error("Failed to delete character", "error", err, "character_id", character.ID)
		http.Error(w, "Failed to delete character", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Character deleted",
	})
}

func (e *ProjectEndpoints) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	templates, err := e.repo.GetProjectTemplates(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to list templates", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

func (e *ProjectEndpoints) CreateTemplateHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "Template name is required", http.StatusBadRequest)
		return
	}

	template := models.ProjectTemplate{
		UserID:                 &user.ID,
		Name:                   req.Name,
		GenreTone:              req.GenreTone,
		MusicalAtmosphere:      req.MusicalAtmosphere,
		IncludeSoundEffects:    true,
		IncludeBackgroundMusic: true,
		TargetDurationMinutes:  req.TargetDurationMinutes,
		CoverStyle:             req.CoverStyle,
		CharactersJSON:         req.CharactersJSON,
	}
	if req.IncludeSoundEffects != nil {
		template.IncludeSoundEffects = *req.IncludeSoundEffects
	}
	if req.IncludeBackgroundMusic != nil {
		template.IncludeBackgroundMusic = *req.IncludeBackgroundMusic
	}
	if template.TargetDurationMinutes <= 0 {
		template.TargetDurationMinutes = 10
	}

	if err := e.repo.CreateProjectTemplate(r.Context(), &template); err != nil {
		slog.Error("Failed to create template", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(template)

	slog.Info("Template created", "template_id", template.ID, "user_id", user.ID, "name", template.Name)
}
