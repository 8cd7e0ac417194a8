package types

import (
	"time"

	"github.com/google/uuid"
)

type Settings struct {
	UserID               uuid.UUID `json:"user_id"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	SearchRadiusKm       float64   `json:"search_radius_km"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type UpdateSettingsParams struct {
	NotificationsEnabled *bool    `json:"notifications_enabled,omitempty"`
	SearchRadiusKm       *float64 `json:"search_radius_km,omitempty" validate:"omitempty,gt=0,lte=50"`
}
