package user

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

var _ UserRepo = (*PostgresUserRepo)(nil)

type UserRepo interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	// UpdateProfile writes the non-nil fields of params and returns the updated profile.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool api.Querier
}

func NewPostgresUserRepo(pgpool api.Querier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const profileColumns = `id, email, username, display_name, profile_image_url, created_at, updated_at`

func scanProfile(row pgx.Row) (*types.UserProfile, error) {
	var p types.UserProfile
	if err := row.Scan(&p.ID, &p.Email, &p.Username, &p.DisplayName, &p.ProfileImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresUserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	start := time.Now()
	profile, err := scanProfile(r.pgpool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().ObserveDBQuery(ctx, "get_profile", start, nil)
		span.SetStatus(codes.Error, "User not found")
		return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	metrics.Get().ObserveDBQuery(ctx, "get_profile", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching profile: %w", err)
	}

	span.SetStatus(codes.Ok, "Profile fetched")
	return profile, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.UserProfile, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *params.Email)
		argID++
		span.SetAttributes(attribute.Bool("update.email", true))
	}
	if params.DisplayName != nil {
		setClauses = append(setClauses, fmt.Sprintf("display_name = $%d", argID))
		args = append(args, *params.DisplayName)
		argID++
		span.SetAttributes(attribute.Bool("update.display_name", true))
	}
	if params.ProfileImageURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("profile_image_url = $%d", argID))
		args = append(args, *params.ProfileImageURL)
		argID++
		span.SetAttributes(attribute.Bool("update.profile_image_url", true))
	}

	if len(setClauses) == 0 {
		return nil, fmt.Errorf("no profile fields to update: %w", types.ErrValidation)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "),
		argID,
		profileColumns,
	)
	l.DebugContext(ctx, "Executing dynamic update query", slog.String("query", query), slog.Int("arg_count", len(args)))

	start := time.Now()
	profile, err := scanProfile(r.pgpool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.Get().ObserveDBQuery(ctx, "update_profile", start, nil)
		span.SetStatus(codes.Error, "User not found")
		return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	metrics.Get().ObserveDBQuery(ctx, "update_profile", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "Email taken")
			return nil, fmt.Errorf("email already in use: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to execute update profile query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated successfully")
	span.SetStatus(codes.Ok, "Profile updated")
	return profile, nil
}
