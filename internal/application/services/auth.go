package services

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"file-share-api/internal/application/ports"
	"file-share-api/internal/domain/user"
	"file-share-api/internal/infrastructure/jwt"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrFailedToGenerateToken = errors.New("failed to generate token")
)

const defaultTokenTTL = 24 * time.Hour

type AuthService struct {
	jwtService *jwt.Service
	ttl        time.Duration
}

func NewAuthService(
	jwtService *jwt.Service,
	ttl time.Duration,
) ports.Auth {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		jwtService: jwtService,
		ttl:        ttl,
	}
}

func (as *AuthService) GenerateToken(u *user.User, requestPassword string) (string, error) {
	if u == nil {
		return "", ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(requestPassword))
	if err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := as.jwtService.GenerateJWT(u.UUID.String(), u.UserName, u.Email, as.ttl)
	if err != nil {
		return "", ErrFailedToGenerateToken
	}

	return token, nil
}
