package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/faceflowai/ledger/pkg/config"
	"github.com/faceflowai/ledger/pkg/response"
)

const (
	// ContextKeyUserID and ContextKeyUserEmail are the gin context keys the
	// auth middleware populates for downstream handlers.
	ContextKeyUserID    = "userID"
	ContextKeyUserEmail = "userEmail"
)

// ParseUserToken validates an HS256 bearer token and extracts the subject
// and email claims.
func ParseUserToken(tokenString, secret string) (userID, email string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}
	userID, _ = claims["sub"].(string)
	if userID == "" {
		return "", "", fmt.Errorf("missing sub claim")
	}
	email, _ = claims["email"].(string)
	return userID, email, nil
}

// AuthMiddleware verifies the Authorization bearer token and attaches the
// user identity to gin.Context and the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}

		userID, email, err := ParseUserToken(tokenString, cfg.Auth.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyUserEmail, email)
		ctx := context.WithValue(c.Request.Context(), ContextKeyUserID, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminMiddleware guards the admin group with a static token header.
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Admin-Token")
		if cfg.Auth.AdminToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Auth.AdminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
			return
		}
		c.Next()
	}
}
