package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-medguide-api/config"
	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

type contextKey string

const UserIDKey contextKey = "userID"

var errMissingToken = errors.New("authorization header required")

// tokenParser validates bearer access tokens issued by AuthServiceImpl.
type tokenParser struct {
	secretKey []byte
	cfg       config.JWTConfig
}

func newTokenParser(logger *slog.Logger, jwtCfg config.JWTConfig) tokenParser {
	if jwtCfg.SecretKey == "" {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}
	return tokenParser{secretKey: []byte(jwtCfg.SecretKey), cfg: jwtCfg}
}

func (p tokenParser) parse(r *http.Request) (*types.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}

	scheme, tokenString, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
		return nil, errors.New("authorization header format must be Bearer {token}")
	}

	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.New("token has expired")
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.New("malformed token")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.New("invalid token signature")
		default:
			return nil, errors.New("invalid or expired token")
		}
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Issuer != p.cfg.Issuer {
		return nil, errors.New("invalid token issuer")
	}
	if !api.VerifyAudience(claims.Audience, p.cfg.Audience) {
		return nil, errors.New("invalid token audience")
	}
	if _, err = uuid.Parse(claims.UserID); err != nil {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer access token and stores
// the user ID in the request context.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	parser := newTokenParser(logger, jwtCfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claims, err := parser.parse(r)
			if err != nil {
				logger.WarnContext(ctx, "Authentication failed", slog.String("middleware", "Authenticate"), slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, err.Error())
				return
			}
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the user ID when a valid token is present and
// lets anonymous requests through. A present but invalid token is still rejected.
func OptionalAuthenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	parser := newTokenParser(logger, jwtCfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parser.parse(r)
			switch {
			case errors.Is(err, errMissingToken):
				next.ServeHTTP(w, r)
			case err != nil:
				logger.WarnContext(r.Context(), "Optional authentication failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, err.Error())
			default:
				ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// UserIDFromContext returns the authenticated user's ID, or types.ErrUnauthenticated.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	userIDStr, ok := GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		return uuid.Nil, fmt.Errorf("user ID not found in context: %w", types.ErrUnauthenticated)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID %q: %w", userIDStr, types.ErrUnauthenticated)
	}
	return userID, nil
}
