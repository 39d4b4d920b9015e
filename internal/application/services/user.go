package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"file-share-api/internal/application/ports"
	domain "file-share-api/internal/domain/user"
	"file-share-api/internal/infrastructure/metrics"
)

type UserService struct {
	userRepository domain.Repository
	m              *metrics.Metrics
	log            *zap.Logger
}

func NewUserService(
	userRepository domain.Repository,
	m *metrics.Metrics,
	logger *zap.Logger,
) ports.UserService {
	return &UserService{
		userRepository: userRepository,
		m:              m,
		log:            logger.Named("users"),
	}
}

func (us *UserService) FindUserByID(ctx context.Context, id domain.UUID) (*domain.User, error) {
	u, err := us.userRepository.FetchUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (us *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := us.userRepository.FetchUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Register stores a new account. Duplicates surface as
// domain.ErrEmailAlreadyExists or domain.ErrUserNameAlreadyExists.
func (us *UserService) Register(ctx context.Context, email, userName, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := us.userRepository.CreateUser(ctx, domain.User{
		UUID:         uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		UserName:     strings.TrimSpace(userName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	us.m.Requests.WithLabelValues("user_registered_total").Inc()
	us.log.Info("user registered", zap.String("user_id", u.UUID.String()))

	return u, nil
}
