package medication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/app/observability/metrics"
	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

var _ MedicationRepository = (*PostgresMedicationRepo)(nil)

const (
	pgUniqueViolation   = "23505"
	addReminderAttempts = 3
)

type MedicationRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]types.MedicationReminder, error)
	// Add appends a reminder after the user's last one.
	Add(ctx context.Context, userID uuid.UUID, at string, label *string) (*types.MedicationReminder, error)
	// Update and Delete return types.ErrNotFound for unknown IDs and for reminders owned by someone else.
	Update(ctx context.Context, userID, id uuid.UUID, params types.UpdateReminderParams) (*types.MedicationReminder, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type PostgresMedicationRepo struct {
	logger *slog.Logger
	pgpool api.Querier
}

func NewPostgresMedicationRepo(pgpool api.Querier, logger *slog.Logger) *PostgresMedicationRepo {
	return &PostgresMedicationRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const reminderColumns = `id, user_id, time, label, position, created_at, updated_at`

func scanReminder(row pgx.Row) (*types.MedicationReminder, error) {
	var m types.MedicationReminder
	if err := row.Scan(&m.ID, &m.UserID, &m.Time, &m.Label, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresMedicationRepo) List(ctx context.Context, userID uuid.UUID) ([]types.MedicationReminder, error) {
	ctx, span := otel.Tracer("MedicationRepo").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "medication_reminders"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	start := time.Now()
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+reminderColumns+` FROM medication_reminders WHERE user_id = $1 ORDER BY position, created_at`, userID)
	if err != nil {
		metrics.Get().ObserveDBQuery(ctx, "list_reminders", start, err)
		r.logger.ErrorContext(ctx, "Failed to query reminders", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error listing reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]types.MedicationReminder, 0)
	for rows.Next() {
		m, err := scanReminder(rows)
		if err != nil {
			metrics.Get().ObserveDBQuery(ctx, "list_reminders", start, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Scan failed")
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		reminders = append(reminders, *m)
	}
	err = rows.Err()
	metrics.Get().ObserveDBQuery(ctx, "list_reminders", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}

	span.SetAttributes(attribute.Int("db.rows", len(reminders)))
	span.SetStatus(codes.Ok, "Reminders listed")
	return reminders, nil
}

func (r *PostgresMedicationRepo) Add(ctx context.Context, userID uuid.UUID, at string, label *string) (*types.MedicationReminder, error) {
	ctx, span := otel.Tracer("MedicationRepo").Start(ctx, "Add", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "medication_reminders"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	var m *types.MedicationReminder
	var err error
	// (user_id, position) is unique; a concurrent add for the same user
	// claims the same MAX+1 and one of the two inserts has to go again
	for attempt := 1; attempt <= addReminderAttempts; attempt++ {
		start := time.Now()
		m, err = scanReminder(r.pgpool.QueryRow(ctx, `
			INSERT INTO medication_reminders (user_id, time, label, position)
			VALUES ($1, $2, $3, COALESCE((SELECT MAX(position) FROM medication_reminders WHERE user_id = $1), 0) + 1)
			RETURNING `+reminderColumns, userID, at, label))
		metrics.Get().ObserveDBQuery(ctx, "add_reminder", start, err)

		var pgErr *pgconn.PgError
		if err == nil || !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
			break
		}
		r.logger.WarnContext(ctx, "Reminder position taken, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert reminder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error adding reminder: %w", err)
	}

	span.SetStatus(codes.Ok, "Reminder added")
	return m, nil
}

func (r *PostgresMedicationRepo) Update(ctx context.Context, userID, id uuid.UUID, params types.UpdateReminderParams) (*types.MedicationReminder, error) {
	ctx, span := otel.Tracer("MedicationRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "medication_reminders"),
		attribute.String("reminder.id", id.String()),
	))
	defer span.End()

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Time != nil {
		setClauses = append(setClauses, fmt.Sprintf("time = $%d", argID))
		args = append(args, *params.Time)
		argID++
	}
	if params.Label != nil {
		// blank clears the label
		setClauses = append(setClauses, fmt.Sprintf("label = NULLIF($%d, '')", argID))
		args = append(args, *params.Label)
		argID++
	}
	if len(setClauses) == 0 {
		return nil, fmt.Errorf("no reminder fields to update: %w", types.ErrValidation)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id, userID)

	query := fmt.Sprintf("UPDATE medication_reminders SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argID, argID+1, reminderColumns)

	start := time.Now()
	m, err := scanReminder(r.pgpool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().ObserveDBQuery(ctx, "update_reminder", start, nil)
		span.SetStatus(codes.Error, "Reminder not found")
		return nil, fmt.Errorf("reminder %s: %w", id, types.ErrNotFound)
	}
	metrics.Get().ObserveDBQuery(ctx, "update_reminder", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update reminder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating reminder: %w", err)
	}

	span.SetStatus(codes.Ok, "Reminder updated")
	return m, nil
}

func (r *PostgresMedicationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := otel.Tracer("MedicationRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "medication_reminders"),
		attribute.String("reminder.id", id.String()),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM medication_reminders WHERE id = $1 AND user_id = $2`, id, userID)
	metrics.Get().ObserveDBQuery(ctx, "delete_reminder", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete reminder", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Reminder not found")
		return fmt.Errorf("reminder %s: %w", id, types.ErrNotFound)
	}

	span.SetStatus(codes.Ok, "Reminder deleted")
	return nil
}
