package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
	ws "github.com/heinercast/backend/websocket"
	"gorm.io/gorm"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	gormDB *repository.GORMRepository
	rawDB  interface{} // Raw GORM DB, used for health pings

	vault             *KeyVault
	geminiService     *GeminiService
	llmService        *LLMService
	elevenLabsService *ElevenLabsService
	audioService      *AudioService
	coverService      *CoverService
	storageService    *StorageService
	sampleCache       *SampleCache
	pipelineService   *PipelineService

	authService         *AuthService
	authEndpoints       *AuthEndpoints
	projectEndpoints    *ProjectEndpoints
	episodeEndpoints    *EpisodeEndpoints
	generationEndpoints *GenerationEndpoints
	voiceEndpoints      *VoiceEndpoints
	settingsEndpoints   *SettingsEndpoints
	fileEndpoints       *FileEndpoints

	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, config.App.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(db *repository.GORMRepository, rawDB interface{}) {
	s.gormDB = db
	s.rawDB = rawDB
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	vault, err := NewKeyVault(s.config.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize key vault: %w", err)
	}
	s.vault = vault

	s.geminiService = NewGeminiService(s.config.Vendors.GeminiAPIKey)
	s.llmService = NewLLMService(s.config.App.Name, s.config.App.URL, s.geminiService)
	s.elevenLabsService = NewElevenLabsService(s.config.Vendors.ElevenLabsAPIKey)
	s.audioService = NewAudioService()
	s.coverService = NewCoverService(s.config.Vendors.KieAIAPIKey)
	s.storageService = NewStorageService(s.config.Storage.Path)
	s.sampleCache = NewSampleCache(filepath.Join(s.config.Storage.Path, "cache"))
	slog.Info("Vendor services initialized")

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	if s.gormDB != nil {
		s.pipelineService = NewPipelineService(
			s.gormDB, s.vault, s.llmService, s.elevenLabsService,
			s.audioService, s.coverService, s.storageService, s.wsHub,
		)
		slog.Info("Pipeline service initialized")
	}

	if s.config.JWT.Secret != "" && s.gormDB != nil {
		s.authService = NewAuthService(s.gormDB, s.config)
		s.authEndpoints = NewAuthEndpoints(s.authService, s.gormDB)
		s.projectEndpoints = NewProjectEndpoints(s.gormDB)
		s.episodeEndpoints = NewEpisodeEndpoints(s.gormDB, s.storageService)
		s.generationEndpoints = NewGenerationEndpoints(s.gormDB, s.pipelineService)
		s.voiceEndpoints = NewVoiceEndpoints(s.gormDB, s.elevenLabsService, s.sampleCache, s.vault)
		s.settingsEndpoints = NewSettingsEndpoints(s.gormDB, s.vault, s.storageService, s.sampleCache, s.config)
		s.fileEndpoints = NewFileEndpoints(s.gormDB, s.storageService)
		slog.Info("Endpoints initialized")
	}

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// Raw file serving for stored asset URLs (protected)
	if s.fileEndpoints != nil && s.authService != nil {
		r.Group(func(r chi.Router) {
			r.Use(s.authService.Middleware)
			s.fileEndpoints.RegisterServeRoutes(r)
		})
	}

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		if s.authEndpoints != nil {
			s.authEndpoints.RegisterRoutes(r)
		}

		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)

				r.Get("/ws", s.websocketHandlerFunc)
				s.authEndpoints.RegisterProtectedRoutes(r)
				s.projectEndpoints.RegisterRoutes(r)
				s.episodeEndpoints.RegisterRoutes(r)
				s.generationEndpoints.RegisterRoutes(r)
				s.voiceEndpoints.RegisterRoutes(r)
				s.settingsEndpoints.RegisterRoutes(r)
				s.fileEndpoints.RegisterRoutes(r)
			})
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// checkOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func checkOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	// Parse allowed origins (comma-separated list)
	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if gormDB, ok := s.rawDB.(*gorm.DB); ok {
			if sqlDB, err := gormDB.DB(); err == nil {
				if err := sqlDB.Ping(); err != nil {
					dbStatus = "down"
					status = "degraded"
				} else {
					dbStatus = "up"
				}
			} else {
				dbStatus = "down"
				status = "degraded"
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"API v1","version":"1.0.0"}`))
}

// websocketHandlerFunc upgrades the connection and attaches it to the
// progress hub. The connection is push-only from the client's perspective.
func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		slog.Error("WebSocket connection failed - user not found in context")
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", user.ID)

	client := s.wsHub.RegisterClient(conn, user.ID)
	go client.WritePump()
	go client.ReadPump()
}
