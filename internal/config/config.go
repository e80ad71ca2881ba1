package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Api     ApiConfig
	Google  GoogleConfig
	Session SessionConfig
	Events  EventsConfig
	Tracing TracingConfig
	MockAPI MockAPIConfig
}

type AppConfig struct {
	Environment string `validate:"required"`
	LogFilePath string `validate:"required"`
	Verbose     bool
}

type ApiConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string `validate:"omitempty,url"`
	CallbackPort string `validate:"required,numeric"`
}

type SessionConfig struct {
	Store    string `validate:"oneof=file redis memory"`
	FilePath string
	RedisURL string
}

type EventsConfig struct {
	NatsURL string // empty disables the NATS mirror
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

type MockAPIConfig struct {
	Port           string        `validate:"required,numeric"`
	JWTSecret      string        `validate:"required"`
	ProgressStore  string        `validate:"oneof=memory redis"`
	RedisURL       string
	ProcessingStep int           `validate:"min=1,max=100"`
	ProcessingTick time.Duration `validate:"gt=0"`
	LogFilePath    string
	CorsOrigins    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	redisURL := getEnv("REDIS_URL", "redis://localhost:6379")

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", filepath.Join("logs", "docview.log")),
			Verbose:     getEnvAsBool("DOCVIEW_VERBOSE", false),
		},
		Api: ApiConfig{
			BaseURL: getEnv("API_URL", getEnv("NEXT_PUBLIC_API_URL", "http://localhost:8000")),
			Timeout: getEnvAsDuration("API_TIMEOUT", 30*time.Second),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8765/auth/google/callback"),
			CallbackPort: getEnv("OAUTH_CALLBACK_PORT", "8765"),
		},
		Session: SessionConfig{
			Store:    getEnv("SESSION_STORE", "file"),
			FilePath: getEnv("SESSION_FILE", defaultSessionFile()),
			RedisURL: redisURL,
		},
		Events: EventsConfig{
			NatsURL: getEnv("NATS_URL", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		MockAPI: MockAPIConfig{
			Port:           getEnv("MOCK_API_PORT", "8000"),
			JWTSecret:      getEnv("JWT_SECRET", "dev-secret"),
			ProgressStore:  getEnv("PROGRESS_STORE", "memory"),
			RedisURL:       redisURL,
			ProcessingStep: getEnvAsInt("PROCESSING_STEP", 15),
			ProcessingTick: getEnvAsDuration("PROCESSING_TICK", time.Second),
			LogFilePath:    getEnv("MOCK_API_LOG_FILE_PATH", filepath.Join("logs", "mockapi.log")),
			CorsOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
	}
}

// Validate checks the loaded values before anything is wired.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".docview", "session.json")
	}
	return filepath.Join(dir, "docview", "session.json")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
