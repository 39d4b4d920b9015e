package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-share-api/internal/domain/file"
	"file-share-api/internal/interface/api/rest/middleware"
)

type errorMapping struct {
	target  error
	code    int
	message string
}

// Order matters: the first matching target wins.
var fileErrors = []errorMapping{
	{file.ErrUnsupportedMediaType, http.StatusBadRequest, "Invalid file type"},
	{file.ErrValidationFailed, http.StatusBadRequest, "Validation failed"},
	{file.ErrInvalidIdentifier, http.StatusBadRequest, "Invalid file ID format"},
	{file.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File too large"},
	{file.ErrRecipientNotFound, http.StatusNotFound, "Recipient user not found"},
	{file.ErrBlobMissing, http.StatusNotFound, "File not found in storage"},
	{file.ErrNotFound, http.StatusNotFound, "File not found"},
	{file.ErrAccessDenied, http.StatusForbidden, "Access denied"},
	{file.ErrStorageWriteFailed, http.StatusInternalServerError, "Failed to store file"},
	{file.ErrStorageReadFailed, http.StatusInternalServerError, "Failed to read file"},
}

// respondError writes the JSON body for err. Only client errors expose the
// error text; 5xx responses carry the request id instead and are logged.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var rl *file.RateLimitedError
	if errors.As(err, &rl) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":           "Upload limit reached",
			"message":         "You can only upload one file every " + humanWindow(rl.Window),
			"nextAllowedDate": rl.NextAllowedAt.UTC().Format(time.RFC3339),
		})
		return
	}

	for _, m := range fileErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.code >= http.StatusInternalServerError {
			break
		}
		c.JSON(m.code, gin.H{"error": m.message, "message": detail(err, m.target)})
		return
	}

	logger.Error(op+" error", zap.Error(err), zap.String("request_id", middleware.RequestIDFrom(c)))

	msg := "Internal server error"
	for _, m := range fileErrors {
		if errors.Is(err, m.target) {
			msg = m.message
			break
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     msg,
		"requestId": middleware.RequestIDFrom(c),
	})
}

// detail strips the sentinel prefix so "validation failed: sender name is
// required" becomes "sender name is required".
func detail(err, target error) string {
	s := err.Error()
	if i := strings.Index(s, target.Error()+": "); i >= 0 {
		return s[i+len(target.Error())+2:]
	}
	return s
}

// humanWindow renders whole days or hours in words and anything else as a
// Go duration.
func humanWindow(d time.Duration) string {
	if d <= 0 {
		d = file.QuotaWindow
	}
	switch {
	case d%(24*time.Hour) == 0 && d > 24*time.Hour:
		return plural(int64(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return strconv.FormatInt(n, 10) + " " + unit + "s"
}
