package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/go-medguide-api/app/observability/metrics"
	"github.com/FACorreiaa/go-medguide-api/config"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Register creates an account and returns the new user ID.
	Register(ctx context.Context, username, email, password string) (string, error)
	// Login returns an access token and a refresh token.
	Login(ctx context.Context, email, password string) (string, string, error)
	// RefreshSession rotates the refresh token and issues a new access token.
	RefreshSession(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	// ChangePassword verifies the old password, stores the new one and revokes every refresh token.
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
	now    func() time.Time
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: cfg.JWT,
		now:    time.Now,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"))
	start := time.Now()

	userID, err := s.register(ctx, username, email, password)

	outcome := "success"
	if err != nil {
		outcome = "error"
		l.WarnContext(ctx, "Registration failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
	} else {
		span.SetStatus(codes.Ok, "User registered")
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.Get().RegisterRequestsTotal.Add(ctx, 1, attrs)
	metrics.Get().RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)

	return userID, err
}

func (s *AuthServiceImpl) register(ctx context.Context, username, email, password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	userID, err := s.repo.Register(ctx, username, email, string(hashed))
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return userID, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrNotFound) {
			l.InfoContext(ctx, "Login for unknown email")
			return "", "", fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
		}
		return "", "", fmt.Errorf("login: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.InfoContext(ctx, "Login with wrong password", slog.String("userID", user.ID))
		span.SetStatus(codes.Error, "Invalid credentials")
		return "", "", fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token issue failed")
		return "", "", err
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	span.SetStatus(codes.Ok, "Logged in")
	return access, refresh, nil
}

func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "RefreshSession")
	defer span.End()

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		return "", "", fmt.Errorf("refresh session: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, types.ErrNotFound) {
			return "", "", fmt.Errorf("refresh session: %w", types.ErrUnauthenticated)
		}
		return "", "", fmt.Errorf("refresh session: %w", err)
	}

	if err = s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		span.RecordError(err)
		return "", "", fmt.Errorf("refresh session: %w", err)
	}

	access, refresh, err := s.issueTokens(ctx, user)
	if err != nil {
		span.RecordError(err)
		return "", "", err
	}
	span.SetStatus(codes.Ok, "Session refreshed")
	return access, refresh, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Logout")
	defer span.End()

	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		span.RecordError(err)
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "ChangePassword", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ChangePassword"), slog.String("userID", userID))

	if oldPassword == newPassword {
		return fmt.Errorf("new password must differ from the old one: %w", types.ErrValidation)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("change password: %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		l.InfoContext(ctx, "Old password did not verify")
		return fmt.Errorf("old password is incorrect: %w", types.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err = s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("change password: %w", err)
	}

	if err = s.repo.InvalidateAllUserRefreshTokens(ctx, userID); err != nil {
		// password already changed; the stale sessions expire on their own
		l.ErrorContext(ctx, "Failed to revoke refresh tokens", slog.Any("error", err))
		span.RecordError(err)
	}

	l.InfoContext(ctx, "Password changed")
	span.SetStatus(codes.Ok, "Password changed")
	return nil
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *types.UserAuth) (string, string, error) {
	now := s.now()
	claims := &types.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	if s.jwtCfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.jwtCfg.Audience}
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := uuid.NewString()
	if err = s.repo.StoreRefreshToken(ctx, user.ID, refresh, now.Add(s.jwtCfg.RefreshTokenTTL)); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return access, refresh, nil
}
