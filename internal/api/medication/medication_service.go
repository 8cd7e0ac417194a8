package medication

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

const msgTimeRequired = "Please enter a time (e.g. 08:00 AM)"

var _ MedicationService = (*MedicationServiceImpl)(nil)

type MedicationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]types.MedicationReminder, error)
	Add(ctx context.Context, userID uuid.UUID, params types.CreateReminderParams) (*types.MedicationReminder, error)
	Update(ctx context.Context, userID, id uuid.UUID, params types.UpdateReminderParams) (*types.MedicationReminder, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type MedicationServiceImpl struct {
	logger   *slog.Logger
	repo     MedicationRepository
	validate *validator.Validate
}

func NewMedicationService(repo MedicationRepository, logger *slog.Logger) *MedicationServiceImpl {
	return &MedicationServiceImpl{
		logger:   logger,
		repo:     repo,
		validate: validator.New(),
	}
}

func (s *MedicationServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]types.MedicationReminder, error) {
	ctx, span := otel.Tracer("MedicationService").Start(ctx, "List", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	reminders, err := s.repo.List(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list reminders")
		return nil, fmt.Errorf("error listing reminders: %w", err)
	}
	span.SetAttributes(attribute.Int("reminders.count", len(reminders)))
	return reminders, nil
}

func (s *MedicationServiceImpl) Add(ctx context.Context, userID uuid.UUID, params types.CreateReminderParams) (*types.MedicationReminder, error) {
	ctx, span := otel.Tracer("MedicationService").Start(ctx, "Add", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Add"), slog.String("userID", userID.String()))

	params.Time = strings.TrimSpace(params.Time)
	if params.Time == "" {
		span.SetStatus(codes.Error, "Missing time")
		return nil, fmt.Errorf("%w: %s", types.ErrValidation, msgTimeRequired)
	}
	params.Label = sanitize.OptionalText(params.Label)
	if err := s.validate.Struct(params); err != nil {
		span.RecordError(err)
		return nil, api.ValidationError(err)
	}

	reminder, err := s.repo.Add(ctx, userID, params.Time, params.Label)
	if err != nil {
		l.ErrorContext(ctx, "Failed to add reminder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to add reminder")
		return nil, fmt.Errorf("error adding reminder: %w", err)
	}

	l.InfoContext(ctx, "Reminder added", slog.Int("position", reminder.Position))
	span.SetStatus(codes.Ok, "Reminder added")
	return reminder, nil
}

func (s *MedicationServiceImpl) Update(ctx context.Context, userID, id uuid.UUID, params types.UpdateReminderParams) (*types.MedicationReminder, error) {
	ctx, span := otel.Tracer("MedicationService").Start(ctx, "Update", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("reminder.id", id.String()),
	))
	defer span.End()

	if params.Time == nil && params.Label == nil {
		return nil, fmt.Errorf("no reminder fields to update: %w", types.ErrValidation)
	}
	if params.Time != nil {
		at := strings.TrimSpace(*params.Time)
		if at == "" {
			span.SetStatus(codes.Error, "Missing time")
			return nil, fmt.Errorf("%w: %s", types.ErrValidation, msgTimeRequired)
		}
		params.Time = &at
	}
	if params.Label != nil {
		label := sanitize.Text(*params.Label)
		params.Label = &label
	}
	if err := s.validate.Struct(params); err != nil {
		span.RecordError(err)
		return nil, api.ValidationError(err)
	}

	reminder, err := s.repo.Update(ctx, userID, id, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update reminder")
		return nil, fmt.Errorf("error updating reminder: %w", err)
	}
	span.SetStatus(codes.Ok, "Reminder updated")
	return reminder, nil
}

func (s *MedicationServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := otel.Tracer("MedicationService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("reminder.id", id.String()),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete reminder")
		return fmt.Errorf("error deleting reminder: %w", err)
	}
	s.logger.InfoContext(ctx, "Reminder deleted", slog.String("userID", userID.String()), slog.String("reminderID", id.String()))
	span.SetStatus(codes.Ok, "Reminder deleted")
	return nil
}
