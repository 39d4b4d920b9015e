package ports

import (
	"context"

	"file-share-api/internal/domain/user"
)

type UserService interface {
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	Register(ctx context.Context, email, userName, password string) (*user.User, error)
}

// UserDirectory resolves recipients. Finders return nil, nil for unknown users.
type UserDirectory interface {
	FindByUsername(ctx context.Context, userName string) (*user.User, error)
	FindByID(ctx context.Context, uuid user.UUID) (*user.User, error)
}
