package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	AllowedOrigins string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	SessionSecret string
	TokenTTL      time.Duration

	AIProvider       string // "openrouter" or "gemini"
	OpenRouterAPIKey string
	GeminiAPIKey     string
	GeminiModel      string
	SiteURL          string

	HistoryWindow   int
	GenerateTimeout time.Duration

	GuestMessagesPerMinute int
	GuestBurst             int
}

func NewConfig() *Config {
	return &Config{
		Port:           envOr("PORT", "3000"),
		AllowedOrigins: envOr("ALLOWED_ORIGINS", "http://localhost:5173"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     envOr("DB_PORT", "5432"),

		SessionSecret: envOr("SESSION_SECRET", "sophia-ai-secret"),
		TokenTTL:      24 * time.Hour,

		AIProvider:       envOr("AI_PROVIDER", "openrouter"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		GeminiAPIKey:     os.Getenv("GOOGLE_AI_STUDIO_API_KEY"),
		GeminiModel:      envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		SiteURL:          envOr("SITE_URL", "https://sophia.chat"),

		HistoryWindow:   envIntOr("HISTORY_WINDOW", 10),
		GenerateTimeout: 30 * time.Second,

		GuestMessagesPerMinute: envIntOr("GUEST_MESSAGES_PER_MINUTE", 10),
		GuestBurst:             envIntOr("GUEST_BURST", 5),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
