package services

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Vendors  VendorConfig
	Security SecurityConfig
}

type AppConfig struct {
	Name           string
	Env            string
	URL            string
	AllowedOrigins string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type JWTConfig struct {
	Secret            string
	AccessExpiryHours int
	RefreshExpiryDays int
}

type StorageConfig struct {
	Type string
	Path string
}

// VendorConfig holds fallback API keys used when a user has not supplied
// their own in settings.
type VendorConfig struct {
	OpenRouterAPIKey string
	ElevenLabsAPIKey string
	KieAIAPIKey      string
	GeminiAPIKey     string
}

type SecurityConfig struct {
	EncryptionKey string
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("app.name", "HeinerCast")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.url", "http://localhost:8080")
	viper.SetDefault("app.allowed_origins", "")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.access_expiry_hours", "24")
	viper.SetDefault("jwt.refresh_expiry_days", "7")
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.path", "./storage")
	viper.SetDefault("vendors.openrouter_api_key", "")
	viper.SetDefault("vendors.elevenlabs_api_key", "")
	viper.SetDefault("vendors.kieai_api_key", "")
	viper.SetDefault("vendors.gemini_api_key", "")
	viper.SetDefault("security.encryption_key", "")

	// Map environment variables to config keys
	viper.BindEnv("app.name", "APP_NAME")
	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("app.url", "APP_URL")
	viper.BindEnv("app.allowed_origins", "ALLOWED_ORIGINS")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("jwt.secret", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.access_expiry_hours", "ACCESS_TOKEN_EXPIRE_HOURS")
	viper.BindEnv("jwt.refresh_expiry_days", "REFRESH_TOKEN_EXPIRE_DAYS")
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.path", "STORAGE_PATH")
	viper.BindEnv("vendors.openrouter_api_key", "DEFAULT_OPENROUTER_API_KEY")
	viper.BindEnv("vendors.elevenlabs_api_key", "DEFAULT_ELEVENLABS_API_KEY")
	viper.BindEnv("vendors.kieai_api_key", "DEFAULT_KIEAI_API_KEY")
	viper.BindEnv("vendors.gemini_api_key", "DEFAULT_GEMINI_API_KEY")
	viper.BindEnv("security.encryption_key", "ENCRYPTION_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		App: AppConfig{
			Name:           viper.GetString("app.name"),
			Env:            viper.GetString("app.env"),
			URL:            viper.GetString("app.url"),
			AllowedOrigins: viper.GetString("app.allowed_origins"),
		},
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		JWT: JWTConfig{
			Secret:            viper.GetString("jwt.secret"),
			AccessExpiryHours: viper.GetInt("jwt.access_expiry_hours"),
			RefreshExpiryDays: viper.GetInt("jwt.refresh_expiry_days"),
		},
		Storage: StorageConfig{
			Type: viper.GetString("storage.type"),
			Path: viper.GetString("storage.path"),
		},
		Vendors: VendorConfig{
			OpenRouterAPIKey: viper.GetString("vendors.openrouter_api_key"),
			ElevenLabsAPIKey: viper.GetString("vendors.elevenlabs_api_key"),
			KieAIAPIKey:      viper.GetString("vendors.kieai_api_key"),
			GeminiAPIKey:     viper.GetString("vendors.gemini_api_key"),
		},
		Security: SecurityConfig{
			EncryptionKey: viper.GetString("security.encryption_key"),
		},
	}
}
