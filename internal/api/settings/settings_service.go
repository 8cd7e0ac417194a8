package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

var _ SettingsService = (*SettingsServiceImpl)(nil)

type SettingsService interface {
	// Get returns the stored settings, or the defaults when the user never saved any.
	Get(ctx context.Context, userID uuid.UUID) (*types.Settings, error)
	// Update applies a partial update and returns the saved settings.
	Update(ctx context.Context, userID uuid.UUID, params types.UpdateSettingsParams) (*types.Settings, error)
	// SearchRadiusKm is the radius nearby searches use when the request gives none.
	SearchRadiusKm(ctx context.Context, userID uuid.UUID) (float64, error)
}

type SettingsServiceImpl struct {
	logger          *slog.Logger
	repo            SettingsRepository
	validate        *validator.Validate
	defaultRadiusKm float64
}

func NewSettingsService(repo SettingsRepository, defaultRadiusKm float64, logger *slog.Logger) *SettingsServiceImpl {
	return &SettingsServiceImpl{
		logger:          logger,
		repo:            repo,
		validate:        validator.New(),
		defaultRadiusKm: defaultRadiusKm,
	}
}

func (s *SettingsServiceImpl) defaults(userID uuid.UUID) types.Settings {
	return types.Settings{
		UserID:               userID,
		NotificationsEnabled: true,
		SearchRadiusKm:       s.defaultRadiusKm,
	}
}

func (s *SettingsServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*types.Settings, error) {
	ctx, span := otel.Tracer("SettingsService").Start(ctx, "Get", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Get"), slog.String("userID", userID.String()))

	settings, err := s.repo.Get(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		l.DebugContext(ctx, "No saved settings, using defaults")
		d := s.defaults(userID)
		span.SetStatus(codes.Ok, "Default settings")
		return &d, nil
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch user settings")
		return nil, fmt.Errorf("error fetching user settings: %w", err)
	}

	span.SetStatus(codes.Ok, "User settings fetched successfully")
	return settings, nil
}

func (s *SettingsServiceImpl) Update(ctx context.Context, userID uuid.UUID, params types.UpdateSettingsParams) (*types.Settings, error) {
	ctx, span := otel.Tracer("SettingsService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("userID", userID.String()))

	if err := s.validate.Struct(params); err != nil {
		span.RecordError(err)
		return nil, api.ValidationError(err)
	}
	if params.NotificationsEnabled == nil && params.SearchRadiusKm == nil {
		return nil, fmt.Errorf("no settings to update: %w", types.ErrValidation)
	}

	settings, err := s.repo.Upsert(ctx, userID, params, s.defaults(userID))
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user settings")
		return nil, fmt.Errorf("error updating user settings: %w", err)
	}

	span.SetStatus(codes.Ok, "User settings updated successfully")
	return settings, nil
}

func (s *SettingsServiceImpl) SearchRadiusKm(ctx context.Context, userID uuid.UUID) (float64, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return settings.SearchRadiusKm, nil
}
