package auth

import (
	"errors"
	"net/http"
	"time"

	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func SetupRoutes(r *gin.Engine, svc *Service) {
	group := r.Group("/api/auth")
	{
		group.POST("/register", registerHandler(svc))
		group.POST("/login", loginHandler(svc))
		group.POST("/logout", logoutHandler())
		group.GET("/me", svc.RequireAuth(), meHandler)
	}
}

func registerHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		if _, err := svc.store.GetUserByUsername(req.Username); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username already exists"})
			return
		}
		if _, err := svc.store.GetUserByEmail(req.Email); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already exists"})
			return
		}

		hash, err := svc.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
			return
		}

		user := models.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
		}
		if err := svc.store.CreateUser(&user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
			return
		}

		token, err := svc.IssueToken(&user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
	}
}

func loginHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
			return
		}

		user, err := svc.store.GetUserByUsername(req.Username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
			return
		}
		if !svc.CheckPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}

		now := time.Now()
		if updated, err := svc.store.UpdateUser(user.ID, map[string]interface{}{"last_login": &now}); err == nil {
			user = updated
		}

		token, err := svc.IssueToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error logging in"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
	}
}

func logoutHandler() gin.HandlerFunc {
	// Tokens are stateless; logout is the client discarding its token.
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func meHandler(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}
