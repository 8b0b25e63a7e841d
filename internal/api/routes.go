package api

import (
	"context"
	"errors"
	"net/http"

	"sophia_companion_go_backend/internal/auth"
	"sophia_companion_go_backend/internal/chat"
	apperrors "sophia_companion_go_backend/internal/errors"
	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Deps is everything the REST surface is wired with at startup.
type Deps struct {
	ChatService  *chat.Service
	AuthService  *auth.Service
	Store        storage.Store
	GuestLimiter *GuestLimiter
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	api := r.Group("/api")
	{
		api.GET("/messages", deps.AuthService.OptionalAuth(), getMessagesHandler(deps.Store))
		api.POST("/messages", deps.AuthService.OptionalAuth(), postMessageHandler(deps))
		api.GET("/messages/export", deps.AuthService.RequireAuth(), exportMessagesHandler(deps.Store))

		api.GET("/settings", deps.AuthService.RequireAdmin(), getSettingsHandler(deps.Store))
		api.PATCH("/settings", deps.AuthService.RequireAdmin(), patchSettingsHandler(deps.Store))

		api.GET("/subscription-plans", getPlansHandler(deps.Store))
		api.GET("/subscription-plans/:id", getPlanHandler(deps.Store))
		api.POST("/subscribe", deps.AuthService.RequireAuth(), subscribeHandler(deps.Store))

		api.POST("/bot/message", botMessageHandler(deps))
	}
}

func getMessagesHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			// Anonymous callers get an empty transcript so the chat UI
			// still renders.
			c.JSON(http.StatusOK, []models.Message{})
			return
		}
		messages, err := store.GetMessages(user.ID)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error fetching messages", err))
			return
		}
		if messages == nil {
			messages = []models.Message{}
		}
		c.JSON(http.StatusOK, messages)
	}
}

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// postMessageHandler is the REST fallback for the live channel: the same
// turn pipeline, returned synchronously as one payload.
func postMessageHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req postMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Content is required"))
			return
		}

		user, authenticated := auth.CurrentUser(c)
		if !authenticated {
			if !deps.GuestLimiter.Allow(c.ClientIP()) {
				c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many messages, slow down"})
				return
			}
			turn, err := deps.ChatService.ProcessGuestMessage(context.Background(), req.Content)
			if err != nil {
				apperrors.HandleError(c, apperrors.New500Error("Error processing message", err))
				return
			}
			c.JSON(http.StatusOK, turn)
			return
		}

		turn, err := deps.ChatService.ProcessUserMessage(context.Background(), user.ID, req.Content)
		if err != nil {
			if errors.Is(err, chat.ErrUserNotFound) {
				apperrors.HandleError(c, apperrors.New404Error("User not found"))
				return
			}
			apperrors.HandleError(c, apperrors.New500Error("Error creating message", err))
			return
		}
		c.JSON(http.StatusOK, turn)
	}
}
