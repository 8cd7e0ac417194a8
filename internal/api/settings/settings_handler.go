package settings

import (
	"fmt"
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

type SettingsHandler struct {
	settingsService SettingsService
	logger          *slog.Logger
}

func NewSettingsHandler(settingsService SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings godoc
// @Summary      Get user settings
// @Description  Returns the signed-in user's notification and search radius settings, or the defaults.
// @Tags         settings
// @Produce      json
// @Success      200 {object} types.Settings
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /settings [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SettingsHandler").Start(r.Context(), "GetSettings", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/settings"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetSettings"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		l.WarnContext(ctx, "User ID not found in context", slog.Any("error", err))
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	settings, err := h.settingsService.Get(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get user settings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get user settings")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}

	span.SetStatus(codes.Ok, "Settings retrieved")
	api.WriteJSONResponse(w, r, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary      Update user settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        settings body types.UpdateSettingsParams true "Fields to change"
// @Success      200 {object} types.Settings
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /settings [put]
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SettingsHandler").Start(r.Context(), "UpdateSettings", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/settings"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateSettings"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpdateSettingsParams
	if err = api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid request format: %s", err.Error()))
		return
	}

	settings, err := h.settingsService.Update(ctx, userID, params)
	if err != nil {
		status := api.StatusFromError(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			l.ErrorContext(ctx, "Failed to update user settings", slog.Any("error", err))
			msg = "Failed to update settings"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user settings")
		api.ErrorResponse(w, r, status, msg)
		return
	}

	l.InfoContext(ctx, "User settings updated", slog.String("userID", userID.String()))
	span.SetStatus(codes.Ok, "Settings updated")
	api.WriteJSONResponse(w, r, http.StatusOK, settings)
}
