package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/heinercast/backend/models"
	"github.com/heinercast/backend/repository"
)

type AuthEndpoints struct {
	authService *AuthService
	repo        *repository.GORMRepository
}

type LoginRequest struct {
	Login    string `json:"login"` // Email or username
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreateAPIKeyRequest struct {
	Name      string `json:"name"`
	ExpiresIn int    `json:"expires_in_days,omitempty"`
}

func NewAuthEndpoints(authService *AuthService, repo *repository.GORMRepository) *AuthEndpoints {
	return &AuthEndpoints{
		authService: authService,
		repo:        repo,
	}
}

func (e *AuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", e.LoginHandler)
		r.Post("/register", e.RegisterHandler)
		r.Post("/refresh", e.RefreshHandler)
		r.Post("/logout", e.LogoutHandler)
	})
}

// RegisterProtectedRoutes registers routes that require the auth middleware.
func (e *AuthEndpoints) RegisterProtectedRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Get("/me", e.MeHandler)
		r.Post("/change-password", e.ChangePasswordHandler)
		r.Route("/api-keys", func(r chi.Router) {
			r.Get("/", e.ListAPIKeysHandler)
			r.Post("/", e.CreateAPIKeyHandler)
			r.Delete("/{id}", e.DeleteAPIKeyHandler)
		})
	})
}

func userSummary(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"language": user.Language,
	}
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	authResponse, err := e.authService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		slog.Error("Login failed", "error", err, "login", req.Login)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	response := map[string]interface{}{
		"user":    userSummary(authResponse.User),
		"message": "Login successful",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	slog.Info("User logged in", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		http.Error(w, "Email, username and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	authResponse, err := e.authService.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		slog.Error("Registration failed", "error", err, "email", req.Email)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, authResponse.RefreshToken)

	response := map[string]interface{}{
		"user":    userSummary(authResponse.User),
		"message": "Registration successful",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)

	slog.Info("User registered", "user_id", authResponse.User.ID, "email", authResponse.User.Email)
}

func (e *AuthEndpoints) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	refreshToken := e.authService.GetTokenFromCookie(r, "refresh_token")
	if refreshToken == "" {
		http.Error(w, "No refresh token provided", http.StatusUnauthorized)
		return
	}

	authResponse, err := e.authService.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		slog.Error("Token refresh failed", "error", err)
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	e.authService.SetAuthCookies(w, authResponse.AccessToken, "")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Token refreshed successfully",
	})

	slog.Info("Token refreshed", "user_id", authResponse.User.ID)
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	// Logout works with or without a valid session; always clear cookies
	if refreshToken := e.authService.GetTokenFromCookie(r, "refresh_token"); refreshToken != "" {
		if err := e.authService.Logout(r.Context(), refreshToken); err != nil {
			slog.Error("Logout failed", "error", err)
		}
	}

	e.authService.ClearAuthCookies(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Logout successful",
	})
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user": userSummary(user),
	})
}

func (e *AuthEndpoints) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < 8 {
		http.Error(w, "New password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	if err := e.authService.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		slog.Error("Password change failed", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to change password", http.StatusBadRequest)
		return
	}

	e.authService.ClearAuthCookies(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Password changed, please log in again",
	})
}

func (e *AuthEndpoints) ListAPIKeysHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	keys, err := e.repo.GetAPIKeys(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to list API keys", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to list API keys", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"api_keys": keys,
		"count":    len(keys),
	})
}

func (e *AuthEndpoints) CreateAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Key name is required", http.StatusBadRequest)
		return
	}

	plainKey, keyHash, err := GenerateAPIKey()
	if err != nil {
		slog.Error("Failed to generate API key", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	key := models.APIKey{
		UserID:   user.ID,
		KeyHash:  keyHash,
		Name:     req.Name,
		IsActive: true,
	}
	if req.ExpiresIn > 0 {
		expiresAt := time.Now().AddDate(0, 0, req.ExpiresIn)
		key.ExpiresAt = &expiresAt
	}

	if err := e.repo.CreateAPIKey(r.Context(), &key); err != nil {
		slog.Error("Failed to create API key", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create API key", http.StatusInternalServerError)
		return
	}

	// The plain key is returned once and never stored
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"api_key": key,
		"key":     plainKey,
		"message": "Store this key now, it will not be shown again",
	})

	slog.Info("API key issued", "key_id", key.ID, "user_id", user.ID, "name", key.Name)
}

func (e *AuthEndpoints) DeleteAPIKeyHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}

	keyID := chi.URLParam(r, "id")
	if keyID == "" {
		http.Error(w, "Key ID is required", http.StatusBadRequest)
		return
	}

	if err := e.repo.DeleteAPIKey(r.Context(), keyID, user.ID); err != nil {
		slog.Error("Failed to delete API key", "error", err, "key_id", keyID, "user_id", user.ID)
		http.Error(w, "Failed to delete API key", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "API key deleted",
	})
}
