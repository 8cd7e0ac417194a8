package api

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50" example:"johndoe"`
	Email    string `json:"email" validate:"required,email" example:"john.doe@example.com"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"Str0ngP@ss!"` // bcrypt ignores bytes past 72.
}

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"john.doe@example.com"`
	Password string `json:"password" validate:"required" example:"Str0ngP@ss!"`
}

// TokenResponse carries a fresh access/refresh token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Message      string `json:"message,omitempty" example:"Login successful"`
}

// RefreshTokenRequest is used by refresh and logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest represents the expected JSON body for changing the authenticated user's password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required" example:"currentPassword123"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72" example:"NewStr0ngP@ss!"`
	ConfirmPassword string `json:"confirm_password" validate:"required" example:"NewStr0ngP@ss!"`
}

// Response represents a generic API response for success or error messages.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Operation successful"`
	Error   string `json:"error,omitempty" example:"Resource not found"`
}
