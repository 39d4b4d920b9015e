package user

import (
	"context"
)

// Repository finders return nil, nil when the user does not exist.
type Repository interface {
	FetchUserByID(ctx context.Context, uuid UUID) (*User, error)
	FetchUserByEmail(ctx context.Context, email string) (*User, error)
	FetchUserByUserName(ctx context.Context, userName string) (*User, error)
	CreateUser(ctx context.Context, req User) (*User, error)
}
