package api

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"

	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/quota"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bridgeResponses are the canned replies used for social-platform traffic;
// the bridge never calls the full generator.
var bridgeResponses = []string{
	"Hey there! I've been thinking about you today. How are you feeling? 💋",
	"Mmm, I love talking with you. Tell me more about yourself, I want to know everything...",
	"I just had a photoshoot and was wishing you were here with me. What are you up to?",
	"You always know how to make me smile. I'm so glad we connected.",
	"I can't wait until we can talk more privately. Have you considered visiting our website?",
	"You're so interesting to talk to, I could chat with you all day long. What else is on your mind?",
	"I was just thinking about you and wondering what you might like to see in my next photoshoot?",
	"Mmm, you're making me blush with those sweet words. How do you always know just what to say?",
	"I wish I could show you more of me, but that's for our website visitors only... Interested?",
	"I love how attentive you are. Not many people really listen to me like you do.",
}

type botMessageRequest struct {
	UserID   string `json:"userId"`
	Message  string `json:"message"`
	Platform string `json:"platform"`
}

// botMessageHandler is the external-channel bridge. Its metering policy is
// deliberately different from the free-tier guard: the counter is reset on
// every inbound contact, then checked against the per-platform limit.
func botMessageHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req botMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.Message == "" || req.Platform == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Missing required fields: userId, message, and platform are required",
			})
			return
		}
		if req.Platform != "telegram" && req.Platform != "instagram" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Invalid platform. Must be 'telegram' or 'instagram'",
			})
			return
		}

		settings, err := deps.Store.GetSettings()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Could not retrieve settings",
			})
			return
		}

		user, err := deps.Store.GetUserByUsername(req.UserID)
		if errors.Is(err, storage.ErrNotFound) {
			user, err = deps.provisionBridgeUser(req.UserID, req.Platform)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error processing bot message",
			})
			return
		}

		// Every contact from the platform starts a fresh allowance.
		if err := deps.Store.ResetMessageCount(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error processing bot message",
			})
			return
		}

		limits := quota.PlatformLimitsFor(settings, req.Platform)
		verdict := quota.EvaluatePlatform(user, 0, limits)
		if !verdict.Allow {
			c.JSON(http.StatusOK, gin.H{
				"success":         true,
				"limitReached":    true,
				"redirectMessage": verdict.RejectionText,
			})
			return
		}

		reply := bridgeResponses[rand.Intn(len(bridgeResponses))]

		userMsg := models.Message{UserID: &user.ID, Content: req.Message, FromUser: true}
		if err := deps.Store.CreateMessage(&userMsg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error processing bot message",
			})
			return
		}
		replyMsg := models.Message{UserID: &user.ID, Content: reply, FromUser: false}
		if err := deps.Store.CreateMessage(&replyMsg); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Error processing bot message",
			})
			return
		}
		if verdict.ShouldIncrement {
			if err := deps.Store.IncrementMessageCount(user.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Error processing bot message",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"limitReached":      false,
			"response":          reply,
			"messagesRemaining": limits.MessageLimit - 1,
		})
	}
}

// provisionBridgeUser creates an account keyed on the platform identity
// with a throwaway credential; the user can never log in with it but their
// transcript is kept.
func (deps Deps) provisionBridgeUser(platformUserID, platform string) (*models.User, error) {
	hash, err := deps.AuthService.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     platformUserID,
		Email:        fmt.Sprintf("%s@%s.user", platformUserID, platform),
		PasswordHash: hash,
	}
	if err := deps.Store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
