package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	UUID = uuid.UUID
	User struct {
		UUID         UUID
		Email        string
		UserName     string
		PasswordHash string

		CreatedAt time.Time
	}
	Users []*User
)
