package types

import (
	"time"

	"github.com/google/uuid"
)

// MedicationReminder is one "take your pill" time as the user typed it, e.g. "08:00 AM".
type MedicationReminder struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Time      string    `json:"time" example:"08:00 AM"`
	Label     *string   `json:"label,omitempty" example:"Pill #1"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateReminderParams struct {
	Time  string  `json:"time" validate:"required,max=32"`
	Label *string `json:"label,omitempty" validate:"omitempty,max=100"`
}

type UpdateReminderParams struct {
	Time  *string `json:"time,omitempty" validate:"omitempty,min=1,max=32"`
	Label *string `json:"label,omitempty" validate:"omitempty,max=100"`
}
