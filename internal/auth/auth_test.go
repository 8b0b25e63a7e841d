package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sophia_companion_go_backend/internal/auth"
	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*auth.Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return auth.NewService(store, "test-secret", time.Hour), store
}

func TestPasswords(t *testing.T) {
	t.Run("Hash verifies against the original password only", func(t *testing.T) {
		// Setup
		svc, _ := newAuthService(t)

		// Execute
		hash, err := svc.HashPassword("hunter22")

		// Assert
		require.NoError(t, err)
		assert.NotEqual(t, "hunter22", hash)
		assert.True(t, svc.CheckPassword(hash, "hunter22"))
		assert.False(t, svc.CheckPassword(hash, "hunter23"))
	})
}

func TestTokens(t *testing.T) {
	t.Run("Issued token round-trips to the same user id", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		user := models.User{Username: "alice", Email: "alice@example.com"}
		require.NoError(t, store.CreateUser(&user))

		// Execute
		token, err := svc.IssueToken(&user)
		require.NoError(t, err)
		id, err := svc.VerifyToken(token)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("Garbage tokens are rejected", func(t *testing.T) {
		svc, _ := newAuthService(t)

		_, err := svc.VerifyToken("garbage.token.here")

		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Tokens signed with another secret are rejected", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		other := auth.NewService(store, "different-secret", time.Hour)
		user := models.User{Username: "bob", Email: "bob@example.com"}
		require.NoError(t, store.CreateUser(&user))
		token, err := other.IssueToken(&user)
		require.NoError(t, err)

		// Execute
		_, err = svc.VerifyToken(token)

		// Assert
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Expired tokens are rejected", func(t *testing.T) {
		// Setup
		store := storage.NewMemoryStore()
		svc := auth.NewService(store, "test-secret", -time.Minute)
		user := models.User{Username: "carol", Email: "carol@example.com"}
		require.NoError(t, store.CreateUser(&user))
		token, err := svc.IssueToken(&user)
		require.NoError(t, err)

		// Execute
		_, err = svc.VerifyToken(token)

		// Assert
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("UserFromToken resolves the stored user", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		user := models.User{Username: "dave", Email: "dave@example.com", IsPaid: true}
		require.NoError(t, store.CreateUser(&user))
		token, err := svc.IssueToken(&user)
		require.NoError(t, err)

		// Execute
		resolved, err := svc.UserFromToken(token)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.ID)
		assert.True(t, resolved.IsPaid)
	})

	t.Run("UserFromToken fails when the account no longer exists", func(t *testing.T) {
		// Setup
		svc, _ := newAuthService(t)
		ghost := models.User{ID: 404}
		token, err := svc.IssueToken(&ghost)
		require.NoError(t, err)

		// Execute
		_, err = svc.UserFromToken(token)

		// Assert
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc *auth.Service) *gin.Engine {
		r := gin.New()
		r.GET("/protected", svc.RequireAuth(), func(c *gin.Context) {
			user, _ := auth.CurrentUser(c)
			c.JSON(http.StatusOK, gin.H{"id": user.ID})
		})
		r.GET("/admin", svc.RequireAdmin(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		r.GET("/open", svc.OptionalAuth(), func(c *gin.Context) {
			if _, ok := auth.CurrentUser(c); ok {
				c.String(http.StatusOK, "known")
				return
			}
			c.String(http.StatusOK, "anonymous")
		})
		return r
	}

	t.Run("RequireAuth rejects missing and malformed headers", func(t *testing.T) {
		// Setup
		svc, _ := newAuthService(t)
		r := newRouter(svc)

		for _, header := range []string{"", "Bearer", "Basic abc", "Bearer bad token extra"} {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			// Execute
			r.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		}
	})

	t.Run("RequireAuth admits a valid bearer token", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		r := newRouter(svc)
		user := models.User{Username: "erin", Email: "erin@example.com"}
		require.NoError(t, store.CreateUser(&user))
		token, err := svc.IssueToken(&user)
		require.NoError(t, err)

		// Execute
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("RequireAdmin forbids non-admin users", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		r := newRouter(svc)
		user := models.User{Username: "frank", Email: "frank@example.com"}
		require.NoError(t, store.CreateUser(&user))
		token, err := svc.IssueToken(&user)
		require.NoError(t, err)

		// Execute
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("RequireAdmin admits admins", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		r := newRouter(svc)
		admin := models.User{Username: "root", Email: "root@example.com", IsAdmin: true}
		require.NoError(t, store.CreateUser(&admin))
		token, err := svc.IssueToken(&admin)
		require.NoError(t, err)

		// Execute
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("OptionalAuth stays silent without a token", func(t *testing.T) {
		// Setup
		svc, _ := newAuthService(t)
		r := newRouter(svc)

		// Execute
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("OptionalAuth resolves a valid token", func(t *testing.T) {
		// Setup
		svc, store := newAuthService(t)
		r := newRouter(svc)
		user := models.User{Username: "grace", Email: "grace@example.com"}
		require.NoError(t, store.CreateUser(&user))
		token, err := svc.IssueToken(&user)
		require.NoError(t, err)

		// Execute
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, "known", w.Body.String())
	})
}
