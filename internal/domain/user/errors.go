package user

import "errors"

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUserNameAlreadyExists = errors.New("user name already exists")
)
