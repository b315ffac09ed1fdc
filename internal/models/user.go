package models

// User is an API account.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	IsSuperuser  bool   `json:"is_superuser" db:"is_superuser"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
}

// Credentials is the body of the register and login endpoints.
type Credentials struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// TokenResponse is returned by login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}
