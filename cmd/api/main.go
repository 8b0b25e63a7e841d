package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"sophia_companion_go_backend/cmd/api/config"
	"sophia_companion_go_backend/internal/ai"
	"sophia_companion_go_backend/internal/api"
	"sophia_companion_go_backend/internal/auth"
	"sophia_companion_go_backend/internal/chat"
	"sophia_companion_go_backend/internal/database"
	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/storage"
	"sophia_companion_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("No .env file found")
	}

	cfg := config.NewConfig()
	ctx := context.Background()

	store := buildStore(cfg, logger)
	generator := buildGenerator(ctx, cfg, logger)

	chatService := chat.NewService(store, generator, cfg.HistoryWindow, cfg.GenerateTimeout, logger)
	authService := auth.NewService(store, cfg.SessionSecret, cfg.TokenTTL)
	guestLimiter := api.NewGuestLimiter(rate.Limit(float64(cfg.GuestMessagesPerMinute)/60.0), cfg.GuestBurst)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // TODO: restrict to AllowedOrigins in production
		},
	}
	wsHandler := wsocket.NewHandler(chatService, authService, upgrader, logger)

	auth.SetupRoutes(r, authService)
	api.SetupRoutes(r, api.Deps{
		ChatService:  chatService,
		AuthService:  authService,
		Store:        store,
		GuestLimiter: guestLimiter,
	})
	r.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

func buildStore(cfg *config.Config, logger zerolog.Logger) storage.Store {
	if cfg.DBHost == "" {
		logger.Warn().Msg("DB_HOST not set, using in-memory store")
		return seedMemoryStore(logger)
	}
	db, err := database.Connect(cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	return storage.NewGormStore(db)
}

// seedMemoryStore provisions the admin account for keyless local runs.
func seedMemoryStore(logger zerolog.Logger) storage.Store {
	store := storage.NewMemoryStore()
	svc := auth.NewService(store, "seed-only", time.Hour)
	hash, err := svc.HashPassword("admin")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin user")
	}
	admin := models.User{Username: "admin", Email: "admin@sophia.ai", PasswordHash: hash}
	if err := store.CreateUser(&admin); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin user")
	}
	if _, err := store.UpdateUser(admin.ID, map[string]interface{}{"is_admin": true}); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin user")
	}
	return store
}

func buildGenerator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ai.Generator {
	switch cfg.AIProvider {
	case "gemini":
		generator, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		return generator
	default:
		return ai.NewOpenRouterGenerator(cfg.OpenRouterAPIKey, cfg.SiteURL, logger)
	}
}
