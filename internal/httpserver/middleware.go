package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lms-commerce/internal/domain"

	"github.com/gin-gonic/gin"
)

const userCtxKey = "user"

type tokenParser interface {
	Parse(token string) (string, error)
}

type userLookup interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// protect rejects requests without a valid token for an existing user.
func protect(tokens tokenParser, users userLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}
		userID, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}
		u, err := users.Get(c.Request.Context(), userID)
		if err != nil {
			msg := "Not authorized, token failed"
			if errors.Is(err, domain.ErrNotFound) {
				msg = "User not found"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}
		c.Set(userCtxKey, u)
		c.Next()
	}
}

// optionalAuth attaches the user when the token checks out and never rejects.
func optionalAuth(tokens tokenParser, users userLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			if userID, err := tokens.Parse(raw); err == nil {
				if u, err := users.Get(c.Request.Context(), userID); err == nil {
					c.Set(userCtxKey, u)
				}
			}
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

// currentUserID is only called behind protect.
func currentUserID(c *gin.Context) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}
