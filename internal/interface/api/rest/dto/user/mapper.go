package user

import "file-share-api/internal/domain/user"

func ToResponseUser(uDomain user.User) User {
	return User{
		ID:        uDomain.UUID,
		Email:     uDomain.Email,
		UserName:  uDomain.UserName,
		CreatedAt: uDomain.CreatedAt,
	}
}
