package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuth is the credential view of a user row.
type UserAuth struct {
	ID        string    `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"`
	Username  string    `json:"username" example:"johndoe"`
	Email     string    `json:"email" example:"john.doe@example.com"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
