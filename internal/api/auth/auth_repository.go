package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/app/observability/metrics"
	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const pgUniqueViolation = "23505"

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error)
	// Register stores a new user and returns its ID. A taken email or username yields types.ErrConflict.
	Register(ctx context.Context, username, email, hashedPassword string) (string, error)
	UpdatePassword(ctx context.Context, userID, newHashedPassword string) error

	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	// ValidateRefreshTokenAndGetUserID returns types.ErrUnauthenticated for unknown, expired or revoked tokens.
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool api.Querier
}

func NewPostgresAuthRepo(pgpool api.Querier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail")
	defer span.End()

	var user types.UserAuth
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	metrics.Get().ObserveDBQuery(ctx, "get_user_by_email", start, ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %q: %w", email, types.ErrNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	var user types.UserAuth
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at, updated_at
		 FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	metrics.Get().ObserveDBQuery(ctx, "get_user_by_id", start, ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "Register")
	defer span.End()

	var userID string
	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id`, username, email, hashedPassword).Scan(&userID)
	metrics.Get().ObserveDBQuery(ctx, "register_user", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return "", fmt.Errorf("user already exists: %w", types.ErrConflict)
		}
		span.RecordError(err)
		return "", fmt.Errorf("failed to insert user: %w", err)
	}

	r.logger.InfoContext(ctx, "User registered", slog.String("userID", userID))
	return userID, nil
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID, newHashedPassword string) error {
	start := time.Now()
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		newHashedPassword, userID)
	metrics.Get().ObserveDBQuery(ctx, "update_password", start, err)
	if err != nil {
		return fmt.Errorf("update password: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	return nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	start := time.Now()
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
		 VALUES ($1, $2, $3)`,
		userID, token, expiresAt)
	metrics.Get().ObserveDBQuery(ctx, "store_refresh_token", start, err)
	if err != nil {
		return fmt.Errorf("store refresh token: db insert failed: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	var userID string
	var expiresAt time.Time
	var revokedAt *time.Time

	start := time.Now()
	err := r.pgpool.QueryRow(ctx,
		`SELECT user_id, expires_at, revoked_at
		 FROM refresh_tokens
		 WHERE token = $1`, refreshToken).Scan(&userID, &expiresAt, &revokedAt)
	metrics.Get().ObserveDBQuery(ctx, "get_refresh_token", start, ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("invalid refresh token: %w", types.ErrUnauthenticated)
		}
		return "", fmt.Errorf("get refresh token: query failed: %w", err)
	}

	if revokedAt != nil || time.Now().After(expiresAt) {
		return "", fmt.Errorf("refresh token expired or revoked: %w", types.ErrUnauthenticated)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	start := time.Now()
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE token = $1 AND revoked_at IS NULL`, refreshToken)
	metrics.Get().ObserveDBQuery(ctx, "revoke_refresh_token", start, err)
	if err != nil {
		return fmt.Errorf("invalidate refresh token: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "No active refresh token to revoke")
	}
	return nil
}

func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	start := time.Now()
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	metrics.Get().ObserveDBQuery(ctx, "revoke_all_refresh_tokens", start, err)
	if err != nil {
		return fmt.Errorf("invalidate all tokens: db update failed: %w", err)
	}
	r.logger.DebugContext(ctx, "Revoked refresh tokens", slog.String("userID", userID), slog.Int64("count", tag.RowsAffected()))
	return nil
}

func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
