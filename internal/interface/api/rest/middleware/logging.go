package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-share-api/internal/infrastructure/metrics"
)

const maxLogBodySize = 1 << 12 // 4 KB

var sensitiveBodyPaths = []string{"/auth/login", "/auth/register"}

func RequestLogGin(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions ||
			c.Request.URL.Path == "/favicon.ico" ||
			strings.HasSuffix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}

		start := time.Now()

		var body string
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			ct := c.GetHeader("Content-Type")
			switch {
			case strings.HasPrefix(ct, "multipart/form-data"):
				body = "<multipart/form-data omitted>"
			case isSensitive(c.Request.URL.Path):
				body = "<credentials omitted>"
			default:
				var buf bytes.Buffer
				_, _ = io.Copy(&buf, io.LimitReader(c.Request.Body, maxLogBodySize))
				body = buf.String()
				c.Request.Body = readCloser{
					Reader: io.MultiReader(bytes.NewReader(buf.Bytes()), c.Request.Body),
					Closer: c.Request.Body,
				}
			}
		}

		c.Next()

		status := c.Writer.Status()
		if m != nil {
			m.Requests.WithLabelValues(resultLabel(status)).Inc()
		}

		fields := []zap.Field{
			zap.String("request_id", RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("url", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("body", body),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP request", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

func isSensitive(path string) bool {
	for _, p := range sensitiveBodyPaths {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

func resultLabel(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "ok"
	}
}
