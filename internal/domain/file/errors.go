package file

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateLimited          = errors.New("upload limit reached")
	ErrUnsupportedMediaType = errors.New("file type not allowed")
	ErrValidationFailed     = errors.New("validation failed")
	ErrFileTooLarge         = errors.New("file too large")
	ErrRecipientNotFound    = errors.New("recipient user not found")
	ErrStorageWriteFailed   = errors.New("failed to store file")
	ErrStorageReadFailed    = errors.New("failed to read file from storage")
	ErrBlobMissing          = errors.New("file not found in storage")
	ErrAccessDenied         = errors.New("access denied")
	ErrNotFound             = errors.New("file not found")
	ErrInvalidIdentifier    = errors.New("invalid file id format")
)

// RateLimitedError carries the earliest time the uploader may try again.
type RateLimitedError struct {
	NextAllowedAt time.Time
	Window        time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: next upload allowed at %s", ErrRateLimited, e.NextAllowedAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// Invalid wraps ErrValidationFailed with a message fit for the caller.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, msg)
}
