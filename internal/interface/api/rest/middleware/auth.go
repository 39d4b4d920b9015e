package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"file-share-api/internal/domain/file"
	"file-share-api/internal/infrastructure/jwt"
)

const CtxActor = "actor"

func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing Authorization header"},
			)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token format"},
			)
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token"},
			)
			return
		}
		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "invalid token"},
			)
			return
		}

		c.Set(CtxActor, file.Actor{
			ID:       id,
			Username: claims.Username,
			Email:    claims.Email,
		})

		c.Next()
	}
}

// ActorFrom returns the actor stored by AuthMiddleware.
func ActorFrom(c *gin.Context) (file.Actor, bool) {
	v, ok := c.Get(CtxActor)
	if !ok {
		return file.Actor{}, false
	}
	a, ok := v.(file.Actor)
	return a, ok
}
