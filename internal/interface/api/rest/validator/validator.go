package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"file-share-api/internal/interface/api/rest/dto/auth"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt safe
	minUserNameLen = 5
	maxUserNameLen = 32
	maxLimit       = 100
)

var userNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidatePage returns 1 for an empty value.
func ValidatePage(page string) (int, error) {
	if page == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		return 0, errors.New("invalid page")
	}

	return p, nil
}

// ValidateLimit returns def for an empty value and caps at maxLimit.
func ValidateLimit(limit string, def int) (int, error) {
	if limit == "" {
		return def, nil
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < 1 {
		return 0, errors.New("invalid limit")
	}
	if l > maxLimit {
		l = maxLimit
	}

	return l, nil
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

func ValidateLogin(r auth.LoginRequest) map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, r.Email)
	// password is not trimmed, only checked for blank
	if strings.TrimSpace(r.Password) == "" {
		errs["password"] = "password is required"
	} else if l := utf8.RuneCountInString(r.Password); l < minPasswordLen || l > maxPasswordLen {
		errs["password"] = "password length must be 8-72 characters"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateRegister(r auth.RegisterRequest) map[string]string {
	errs := make(map[string]string)

	validateEmail(errs, r.Email)

	name := strings.TrimSpace(r.UserName)
	if name == "" {
		errs["userName"] = "userName is required"
	} else if l := utf8.RuneCountInString(name); l < minUserNameLen || l > maxUserNameLen {
		errs["userName"] = "userName length must be 5-32 characters"
	} else if !userNameRe.MatchString(name) {
		errs["userName"] = "allowed characters: letters, digits, '_', '.', '-'"
	}

	if strings.TrimSpace(r.Password) == "" {
		errs["password"] = "password is required"
	} else if l := len(r.Password); l < minPasswordLen || l > maxPasswordLen {
		errs["password"] = "password length must be 8-72 bytes"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateEmail(errs map[string]string, raw string) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		errs["email"] = "email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "invalid email format"
	}
}
