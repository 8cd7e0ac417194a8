package types

import (
	"time"

	"github.com/google/uuid"
)

type UserProfile struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	DisplayName     *string   `json:"display_name,omitempty"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateProfileParams defines the fields allowed for profile updates.
// Nil fields are left untouched.
type UpdateProfileParams struct {
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName     *string `json:"display_name,omitempty" validate:"omitempty,max=100"`
	ProfileImageURL *string `json:"profile_image_url,omitempty" validate:"omitempty,url"`
}

func (p UpdateProfileParams) Empty() bool {
	return p.Email == nil && p.DisplayName == nil && p.ProfileImageURL == nil
}
