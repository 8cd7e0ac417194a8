package user

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

type UserHandler struct {
	userService UserService
	logger      *slog.Logger
}

func NewUserHandler(userService UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the authenticated user's profile information.
// @Tags         profile
// @Produce      json
// @Success      200 {object} types.UserProfile "User Profile"
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      404 {object} api.Response "User Not Found"
// @Security     BearerAuth
// @Router       /profile [get]
func (h *UserHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "GetUserProfile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/profile"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetUserProfile"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.userService.GetUserProfile(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get profile")
		if status := api.StatusFromError(err); status == http.StatusNotFound {
			api.ErrorResponse(w, r, status, "User not found")
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve user profile")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateUserProfile godoc
// @Summary      Update User Profile
// @Description  Updates email, display name or profile picture. Omitted fields are left unchanged.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        profile body types.UpdateProfileParams true "Profile Update Parameters"
// @Success      200 {object} types.UserProfile
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      409 {object} api.Response "Email already in use"
// @Security     BearerAuth
// @Router       /profile [put]
func (h *UserHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UserHandler").Start(r.Context(), "UpdateUserProfile", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/profile"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateUserProfile"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpdateProfileParams
	if err = api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	profile, err := h.userService.UpdateUserProfile(ctx, userID, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update profile")
		status := api.StatusFromError(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
			msg = "Failed to update user profile"
		}
		api.ErrorResponse(w, r, status, msg)
		return
	}

	span.SetStatus(codes.Ok, "Profile updated")
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}
