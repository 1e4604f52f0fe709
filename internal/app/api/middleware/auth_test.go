package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/response"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParseUserToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		s := signedToken(t, jwt.MapClaims{"sub": "user_1", "email": "u@example.com"}, testSecret)
		userID, email, err := ParseUserToken(s, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "user_1", userID)
		assert.Equal(t, "u@example.com", email)
	})

	t.Run("wrong secret", func(t *testing.T) {
		s := signedToken(t, jwt.MapClaims{"sub": "user_1"}, "other-secret")
		_, _, err := ParseUserToken(s, testSecret)
		assert.Error(t, err)
	})

	t.Run("missing sub claim", func(t *testing.T) {
		s := signedToken(t, jwt.MapClaims{"email": "u@example.com"}, testSecret)
		_, _, err := ParseUserToken(s, testSecret)
		assert.Error(t, err)
	})
}

func authTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(cfg))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(ContextKeyUserID)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: testSecret}}
	r := authTestRouter(cfg)

	t.Run("accepts bearer token", func(t *testing.T) {
		s := signedToken(t, jwt.MapClaims{"sub": "user_1"}, testSecret)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+s)
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user_1")
	})

	t.Run("rejects missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		r.ServeHTTP(w, req)

		var res response.APIResponse[any]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, response.APIResponseCodeUnauthenticated, res.Code)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		r.ServeHTTP(w, req)

		var res response.APIResponse[any]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, response.APIResponseCodeUnauthenticated, res.Code)
	})
}

func TestAdminMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Auth: config.AuthConfig{AdminToken: "admin-token"}}
	r := gin.New()
	r.Use(AdminMiddleware(cfg))
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("accepts matching token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-Admin-Token", "admin-token")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-Admin-Token", "nope")
		r.ServeHTTP(w, req)

		var res response.APIResponse[any]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, response.APIResponseCodeUnauthenticated, res.Code)
	})

	t.Run("rejects when unconfigured", func(t *testing.T) {
		empty := &config.Config{}
		r2 := gin.New()
		r2.Use(AdminMiddleware(empty))
		r2.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		r2.ServeHTTP(w, req)

		var res response.APIResponse[any]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, response.APIResponseCodeUnauthenticated, res.Code)
	})
}
