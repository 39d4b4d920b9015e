package auth

import "file-share-api/internal/interface/api/rest/dto/user"

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	RegisterRequest struct {
		Email    string `json:"email"`
		UserName string `json:"userName"`
		Password string `json:"password"`
	}
	LoginResponse struct {
		Token     string    `json:"token"`
		TokenType string    `json:"tokenType"`
		User      user.User `json:"user"`
	}
)
