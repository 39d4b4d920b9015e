package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"file-share-api/internal/domain/user"
	"file-share-api/internal/infrastructure/db/postgres"
)

const userNameConstraint = "users_user_name_key"

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) user.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchUserByID(ctx context.Context, uuid user.UUID) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByID, uuid)
}

func (r *Repository) FetchUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByEmail, email)
}

func (r *Repository) FetchUserByUserName(ctx context.Context, userName string) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByUserName, userName)
}

func (r *Repository) CreateUser(ctx context.Context, req user.User) (*user.User, error) {
	u := new(User)

	err := r.db.QueryRow(
		ctx,
		InsertUser,
		req.UUID, req.Email, req.UserName, req.PasswordHash,
	).Scan(
		&u.UUID,
		&u.Email,
		&u.UserName,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if ok, constraint := postgres.IsPgUniqueViolation(err); ok {
			if constraint == userNameConstraint {
				return nil, user.ErrUserNameAlreadyExists
			}
			return nil, user.ErrEmailAlreadyExists
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) fetchOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u := new(User)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.UUID,
		&u.Email,
		&u.UserName,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(u), nil
}
