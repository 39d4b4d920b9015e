package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	CtxRequestID    = "requestID"

	maxRequestIDLen = 128
)

// RequestID reuses a client supplied X-Request-Id or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)

		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(CtxRequestID)
}
