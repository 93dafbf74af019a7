package services

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()

	config := LoadConfig()

	if config.App.Name != "HeinerCast" {
		t.Errorf("App.Name = %q, want %q", config.App.Name, "HeinerCast")
	}
	if config.App.Env != "development" {
		t.Errorf("App.Env = %q, want %q", config.App.Env, "development")
	}
	if config.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", config.Server.Port, "8080")
	}
	if !config.Database.Seed {
		t.Error("Database.Seed should default to true")
	}
	if config.Database.MaxIdleConns != 10 || config.Database.MaxOpenConns != 100 {
		t.Errorf("connection pool defaults = (%d, %d), want (10, 100)",
			config.Database.MaxIdleConns, config.Database.MaxOpenConns)
	}
	if config.JWT.AccessExpiryHours != 24 || config.JWT.RefreshExpiryDays != 7 {
		t.Errorf("token expiry defaults = (%dh, %dd), want (24h, 7d)",
			config.JWT.AccessExpiryHours, config.JWT.RefreshExpiryDays)
	}
	if config.Storage.Type != "local" || config.Storage.Path != "./storage" {
		t.Errorf("storage defaults = (%q, %q), want (local, ./storage)",
			config.Storage.Type, config.Storage.Path)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	viper.Reset()

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/heinercast")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173")
	t.Setenv("DEFAULT_ELEVENLABS_API_KEY", "el-key")

	config := LoadConfig()

	if config.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want %q", config.Server.Port, "9090")
	}
	if config.JWT.Secret != "env-secret" {
		t.Errorf("JWT.Secret = %q, want %q", config.JWT.Secret, "env-secret")
	}
	if config.Database.URL != "postgres://localhost:5432/heinercast" {
		t.Errorf("Database.URL = %q", config.Database.URL)
	}
	if config.App.AllowedOrigins != "http://localhost:5173" {
		t.Errorf("App.AllowedOrigins = %q", config.App.AllowedOrigins)
	}
	if config.Vendors.ElevenLabsAPIKey != "el-key" {
		t.Errorf("Vendors.ElevenLabsAPIKey = %q, want %q", config.Vendors.ElevenLabsAPIKey, "el-key")
	}
}
