package user

const (
	SelectUserByID = `
		SELECT id, email, user_name, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	SelectUserByEmail = `
		SELECT id, email, user_name, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	SelectUserByUserName = `
		SELECT id, email, user_name, password_hash, created_at
		FROM users
		WHERE user_name = $1
	`
	InsertUser = `
		INSERT INTO users (id, email, user_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, email, user_name, password_hash, created_at
	`
)
