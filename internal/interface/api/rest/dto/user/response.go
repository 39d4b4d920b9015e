package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
