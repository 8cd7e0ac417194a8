package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const msgMissingFields = "Please fill out all fields."

type AuthHandler struct {
	authService AuthService
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// validateRequest maps a failed "required" rule to the generic missing-fields message.
func (h *AuthHandler) validateRequest(req any) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return errors.New(msgMissingFields)
			}
		}
	}
	return api.ValidationError(err)
}

func (h *AuthHandler) startSpan(r *http.Request, name, route string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
	return r.WithContext(ctx), span
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, err error, fallback string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	status := api.StatusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), fallback, slog.Any("error", err))
		msg = fallback
	} else {
		l.WarnContext(r.Context(), fallback, slog.Any("error", err))
	}
	api.ErrorResponse(w, r, status, msg)
}

// Register godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body api.RegisterRequest true "Account details"
// @Success      201 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      409 {object} api.Response "User already exists"
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Register", "/auth/register")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Register"))

	var req api.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		h.fail(w, r, span, l, fmt.Errorf("%w: %w", types.ErrValidation, err), "Invalid request body")
		return
	}
	if err := h.validateRequest(req); err != nil {
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, types.ErrConflict) {
			span.RecordError(err)
			api.ErrorResponse(w, r, http.StatusConflict, "User already exists")
			return
		}
		h.fail(w, r, span, l, err, "Failed to register user")
		return
	}

	span.SetStatus(codes.Ok, "User registered")
	api.WriteJSONResponse(w, r, http.StatusCreated, api.Response{Success: true, Message: "Account created"})
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body api.LoginRequest true "Credentials"
// @Success      200 {object} api.TokenResponse
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Login", "/auth/login")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Login"))

	var req api.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		h.fail(w, r, span, l, fmt.Errorf("%w: %w", types.ErrValidation, err), "Invalid request body")
		return
	}
	if err := h.validateRequest(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	access, refresh, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			span.RecordError(err)
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.fail(w, r, span, l, err, "Failed to log in")
		return
	}

	span.SetStatus(codes.Ok, "Logged in")
	api.WriteJSONResponse(w, r, http.StatusOK, api.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Message:      "Login successful",
	})
}

// RefreshToken godoc
// @Summary      Rotate the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body api.RefreshTokenRequest true "Refresh token"
// @Success      200 {object} api.TokenResponse
// @Failure      401 {object} api.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "RefreshToken", "/auth/refresh")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RefreshToken"))

	var req api.RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		h.fail(w, r, span, l, fmt.Errorf("%w: %w", types.ErrValidation, err), "Invalid request body")
		return
	}
	if err := h.validateRequest(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	access, refresh, err := h.authService.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, r, span, l, err, "Failed to refresh session")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.TokenResponse{AccessToken: access, RefreshToken: refresh})
}

// Logout godoc
// @Summary      Revoke a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body api.RefreshTokenRequest true "Refresh token"
// @Success      200 {object} api.Response
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "Logout", "/auth/logout")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Logout"))

	var req api.RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		h.fail(w, r, span, l, fmt.Errorf("%w: %w", types.ErrValidation, err), "Invalid request body")
		return
	}
	if err := h.validateRequest(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		h.fail(w, r, span, l, err, "Failed to log out")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Logged out"})
}

// ChangePassword godoc
// @Summary      Change the signed-in user's password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body api.ChangePasswordRequest true "Passwords"
// @Success      200 {object} api.Response
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	r, span := h.startSpan(r, "ChangePassword", "/auth/password")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ChangePassword"))

	userID, err := UserIDFromContext(r.Context())
	if err != nil {
		h.fail(w, r, span, l, err, "Authentication required")
		return
	}

	var req api.ChangePasswordRequest
	if err = api.DecodeJSONBody(w, r, &req); err != nil {
		h.fail(w, r, span, l, fmt.Errorf("%w: %w", types.ErrValidation, err), "Invalid request body")
		return
	}
	if err = h.validateRequest(req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		api.ErrorResponse(w, r, http.StatusBadRequest, "New passwords do not match.")
		return
	}

	if err = h.authService.ChangePassword(r.Context(), userID.String(), req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, span, l, err, "Failed to change password")
		return
	}

	span.SetStatus(codes.Ok, "Password changed")
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Password updated"})
}
