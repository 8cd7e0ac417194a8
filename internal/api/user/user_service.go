package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/sanitize"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	// UpdateUserProfile needs at least one field. A taken email yields types.ErrConflict.
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error)
}

type UserServiceImpl struct {
	logger   *slog.Logger
	repo     UserRepo
	validate *validator.Validate
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:   logger,
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "GetUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to fetch profile")
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	return profile, nil
}

func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUserProfile", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateUserProfile"), slog.String("userID", userID.String()))

	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		params.Email = &email
	}
	if params.DisplayName != nil {
		name := sanitize.Text(*params.DisplayName)
		params.DisplayName = &name
	}
	if params.ProfileImageURL != nil {
		u := strings.TrimSpace(*params.ProfileImageURL)
		params.ProfileImageURL = &u
	}

	if params.Empty() {
		return nil, fmt.Errorf("no profile fields to update: %w", types.ErrValidation)
	}
	if err := s.validate.Struct(params); err != nil {
		span.RecordError(err)
		return nil, api.ValidationError(err)
	}

	profile, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update profile")
		return nil, fmt.Errorf("error updating user profile: %w", err)
	}

	span.SetStatus(codes.Ok, "Profile updated")
	return profile, nil
}
