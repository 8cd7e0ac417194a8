package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/app/observability/metrics"
	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

var _ SettingsRepository = (*PostgresSettingsRepo)(nil)

type SettingsRepository interface {
	// Get returns types.ErrNotFound when the user never saved settings.
	Get(ctx context.Context, userID uuid.UUID) (*types.Settings, error)
	// Upsert writes the non-nil fields of params, creating the row from defaults when missing.
	Upsert(ctx context.Context, userID uuid.UUID, params types.UpdateSettingsParams, defaults types.Settings) (*types.Settings, error)
}

type PostgresSettingsRepo struct {
	logger *slog.Logger
	pgpool api.Querier
}

func NewPostgresSettingsRepo(pgpool api.Querier, logger *slog.Logger) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresSettingsRepo) Get(ctx context.Context, userID uuid.UUID) (*types.Settings, error) {
	ctx, span := otel.Tracer("SettingsRepo").Start(ctx, "Get", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "user_settings"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Get"), slog.String("userID", userID.String()))

	settings := types.Settings{UserID: userID}
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, `
		SELECT notifications_enabled, search_radius_km, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1`, userID).Scan(
		&settings.NotificationsEnabled,
		&settings.SearchRadiusKm,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().ObserveDBQuery(ctx, "get_settings", start, nil)
		span.SetStatus(codes.Ok, "No settings row")
		return nil, fmt.Errorf("user settings not found: %w", types.ErrNotFound)
	}
	metrics.Get().ObserveDBQuery(ctx, "get_settings", start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query user settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching settings: %w", err)
	}

	span.SetStatus(codes.Ok, "Settings fetched")
	return &settings, nil
}

func (r *PostgresSettingsRepo) Upsert(ctx context.Context, userID uuid.UUID, params types.UpdateSettingsParams, defaults types.Settings) (*types.Settings, error) {
	ctx, span := otel.Tracer("SettingsRepo").Start(ctx, "Upsert", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "user_settings"),
		attribute.String("db.user.id", userID.String()),
		attribute.Bool("update.notifications", params.NotificationsEnabled != nil),
		attribute.Bool("update.radius", params.SearchRadiusKm != nil),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "Upsert"), slog.String("userID", userID.String()))

	settings := types.Settings{UserID: userID}
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO user_settings (user_id, notifications_enabled, search_radius_km)
		VALUES ($1, COALESCE($2, $4), COALESCE($3, $5))
		ON CONFLICT (user_id) DO UPDATE SET
			notifications_enabled = COALESCE($2, user_settings.notifications_enabled),
			search_radius_km      = COALESCE($3, user_settings.search_radius_km),
			updated_at            = NOW()
		RETURNING notifications_enabled, search_radius_km, created_at, updated_at`,
		userID, params.NotificationsEnabled, params.SearchRadiusKm,
		defaults.NotificationsEnabled, defaults.SearchRadiusKm,
	).Scan(
		&settings.NotificationsEnabled,
		&settings.SearchRadiusKm,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	metrics.Get().ObserveDBQuery(ctx, "upsert_settings", start, err)
	if err != nil {
		l.ErrorContext(ctx, "Failed to upsert user settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPSERT failed")
		return nil, fmt.Errorf("database error updating user settings: %w", err)
	}

	l.InfoContext(ctx, "User settings saved")
	span.SetStatus(codes.Ok, "User settings saved")
	return &settings, nil
}
