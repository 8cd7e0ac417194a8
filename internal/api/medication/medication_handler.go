package medication

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

type MedicationHandler struct {
	medicationService MedicationService
	logger            *slog.Logger
}

func NewMedicationHandler(medicationService MedicationService, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{
		medicationService: medicationService,
		logger:            logger,
	}
}

// fail writes err as a JSON error, hiding details of unexpected failures.
func (h *MedicationHandler) fail(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, err error, fallback string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, fallback)
	status := api.StatusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), fallback, slog.Any("error", err))
		msg = fallback
	}
	api.ErrorResponse(w, r, status, msg)
}

func reminderID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid reminder ID", types.ErrValidation)
	}
	return id, nil
}

// ListReminders godoc
// @Summary      List medication reminders
// @Description  Returns the signed-in user's reminder times in the order they were added.
// @Tags         medications
// @Produce      json
// @Success      200 {array} types.MedicationReminder
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /medications [get]
func (h *MedicationHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MedicationHandler").Start(r.Context(), "ListReminders", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/medications"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ListReminders"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	reminders, err := h.medicationService.List(ctx, userID)
	if err != nil {
		h.fail(w, r, span, l, err, "Failed to retrieve reminders")
		return
	}

	span.SetStatus(codes.Ok, "Reminders listed")
	api.WriteJSONResponse(w, r, http.StatusOK, reminders)
}

// AddReminder godoc
// @Summary      Add a medication reminder
// @Tags         medications
// @Accept       json
// @Produce      json
// @Param        reminder body types.CreateReminderParams true "Reminder time and optional label"
// @Success      201 {object} types.MedicationReminder
// @Failure      400 {object} api.Response "Missing time"
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /medications [post]
func (h *MedicationHandler) AddReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MedicationHandler").Start(r.Context(), "AddReminder", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/medications"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "AddReminder"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.CreateReminderParams
	if err = api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	reminder, err := h.medicationService.Add(ctx, userID, params)
	if err != nil {
		h.fail(w, r, span, l, err, "Failed to add reminder")
		return
	}

	span.SetAttributes(attribute.String("reminder.id", reminder.ID.String()))
	span.SetStatus(codes.Ok, "Reminder added")
	api.WriteJSONResponse(w, r, http.StatusCreated, reminder)
}

// UpdateReminder godoc
// @Summary      Update a medication reminder
// @Tags         medications
// @Accept       json
// @Produce      json
// @Param        id path string true "Reminder ID"
// @Param        reminder body types.UpdateReminderParams true "Fields to change"
// @Success      200 {object} types.MedicationReminder
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /medications/{id} [put]
func (h *MedicationHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MedicationHandler").Start(r.Context(), "UpdateReminder", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/medications/{id}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "UpdateReminder"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := reminderID(r)
	if err != nil {
		h.fail(w, r, span, l, err, "Invalid reminder ID")
		return
	}

	var params types.UpdateReminderParams
	if err = api.DecodeJSONBody(w, r, &params); err != nil {
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	reminder, err := h.medicationService.Update(ctx, userID, id, params)
	if err != nil {
		h.fail(w, r, span, l, err, "Failed to update reminder")
		return
	}

	span.SetStatus(codes.Ok, "Reminder updated")
	api.WriteJSONResponse(w, r, http.StatusOK, reminder)
}

// DeleteReminder godoc
// @Summary      Delete a medication reminder
// @Tags         medications
// @Produce      json
// @Param        id path string true "Reminder ID"
// @Success      200 {object} api.Response
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /medications/{id} [delete]
func (h *MedicationHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("MedicationHandler").Start(r.Context(), "DeleteReminder", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/medications/{id}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "DeleteReminder"))

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "Authentication required")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := reminderID(r)
	if err != nil {
		h.fail(w, r, span, l, err, "Invalid reminder ID")
		return
	}

	if err = h.medicationService.Delete(ctx, userID, id); err != nil {
		h.fail(w, r, span, l, err, "Failed to delete reminder")
		return
	}

	span.SetStatus(codes.Ok, "Reminder deleted")
	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Reminder deleted"})
}
