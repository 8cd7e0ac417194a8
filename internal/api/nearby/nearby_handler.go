package nearby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/api/auth"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RadiusPreference returns the search radius a signed-in user prefers.
type RadiusPreference interface {
	SearchRadiusKm(ctx context.Context, userID uuid.UUID) (float64, error)
}

type NearbyHandler struct {
	nearbyService NearbyService
	radiusPref    RadiusPreference
	logger        *slog.Logger
}

// NewNearbyHandler creates the handler. radiusPref may be nil.
func NewNearbyHandler(nearbyService NearbyService, radiusPref RadiusPreference, logger *slog.Logger) *NearbyHandler {
	return &NearbyHandler{
		nearbyService: nearbyService,
		radiusPref:    radiusPref,
		logger:        logger,
	}
}

// parseNearbyQuery reads lat, lon, radius_km and limit. lat and lon must be given together.
func parseNearbyQuery(r *http.Request) (types.NearbyQuery, error) {
	var q types.NearbyQuery
	values := r.URL.Query()

	latStr, lonStr := values.Get("lat"), values.Get("lon")
	switch {
	case latStr == "" && lonStr == "":
	case latStr == "" || lonStr == "":
		return q, fmt.Errorf("lat and lon must be provided together: %w", types.ErrValidation)
	default:
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return q, fmt.Errorf("invalid lat %q: %w", latStr, types.ErrValidation)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return q, fmt.Errorf("invalid lon %q: %w", lonStr, types.ErrValidation)
		}
		q.Center = &types.GeoPoint{Lat: lat, Lon: lon}
	}

	if s := values.Get("radius_km"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
			return q, fmt.Errorf("radius_km must be a positive number: %w", types.ErrValidation)
		}
		q.RadiusKm = radius
	}

	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return q, fmt.Errorf("limit must be a positive integer: %w", types.ErrValidation)
		}
		q.Limit = limit
	}
	return q, nil
}

// applyUserRadius fills the radius from the user's settings when the request did not set one.
func (h *NearbyHandler) applyUserRadius(ctx context.Context, q *types.NearbyQuery, l *slog.Logger) {
	if q.RadiusKm > 0 || h.radiusPref == nil {
		return
	}
	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return
	}
	radius, err := h.radiusPref.SearchRadiusKm(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Could not load preferred search radius", slog.Any("error", err))
		}
		return
	}
	q.RadiusKm = radius
}

func (h *NearbyHandler) buildQuery(w http.ResponseWriter, r *http.Request, l *slog.Logger) (types.NearbyQuery, bool) {
	q, err := parseNearbyQuery(r)
	if err != nil {
		l.WarnContext(r.Context(), "Invalid nearby query", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return q, false
	}
	h.applyUserRadius(r.Context(), &q, l)
	return q, true
}

func (h *NearbyHandler) category(w http.ResponseWriter, r *http.Request, q *types.NearbyQuery) bool {
	category, err := types.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	q.Category = category
	return true
}

// SearchNearby godoc
// @Summary      Nearby hospitals or pharmacies
// @Description  Ranks places of the category by great-circle distance from the center. Defaults to the configured center when lat/lon are omitted.
// @Tags         nearby
// @Produce      json
// @Param        category  path   string  true   "hospital or pharmacy"
// @Param        lat       query  number  false  "Center latitude"
// @Param        lon       query  number  false  "Center longitude"
// @Param        radius_km query  number  false  "Search radius in km"
// @Param        limit     query  integer false  "Maximum number of places"
// @Success      200 {object} types.NearbyResult
// @Failure      400 {object} map[string]interface{}
// @Failure      502 {object} map[string]interface{}
// @Router       /nearby/{category} [get]
func (h *NearbyHandler) SearchNearby(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NearbyHandler").Start(r.Context(), "SearchNearby", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/nearby/{category}"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "SearchNearby"))

	q, ok := h.buildQuery(w, r, l)
	if !ok || !h.category(w, r, &q) {
		return
	}

	result, err := h.nearbyService.Search(ctx, q)
	if err != nil {
		l.ErrorContext(ctx, "Nearby search failed", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// SearchCare godoc
// @Summary      Nearby hospitals and pharmacies
// @Tags         nearby
// @Produce      json
// @Param        lat       query  number  false  "Center latitude"
// @Param        lon       query  number  false  "Center longitude"
// @Param        radius_km query  number  false  "Search radius in km"
// @Success      200 {object} types.CareResult
// @Failure      400 {object} map[string]interface{}
// @Failure      502 {object} map[string]interface{}
// @Router       /nearby/care [get]
func (h *NearbyHandler) SearchCare(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NearbyHandler").Start(r.Context(), "SearchCare", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/nearby/care"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "SearchCare"))

	q, ok := h.buildQuery(w, r, l)
	if !ok {
		return
	}
	// per-category limits apply
	q.Limit = 0

	result, err := h.nearbyService.SearchCare(ctx, q)
	if err != nil {
		l.ErrorContext(ctx, "Care search failed", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// ExportNearby godoc
// @Summary      Export a nearby search as XLSX
// @Tags         nearby
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        category  path   string  true   "hospital or pharmacy"
// @Param        lat       query  number  false  "Center latitude"
// @Param        lon       query  number  false  "Center longitude"
// @Param        radius_km query  number  false  "Search radius in km"
// @Success      200 {file} file
// @Failure      400 {object} map[string]interface{}
// @Router       /nearby/{category}/export [get]
func (h *NearbyHandler) ExportNearby(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NearbyHandler").Start(r.Context(), "ExportNearby", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/nearby/{category}/export"),
	))
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "ExportNearby"))

	q, ok := h.buildQuery(w, r, l)
	if !ok || !h.category(w, r, &q) {
		return
	}

	data, err := h.nearbyService.Export(ctx, q)
	if err != nil {
		l.ErrorContext(ctx, "Nearby export failed", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, api.StatusFromError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="nearby-%s.xlsx"`, q.Category))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		l.ErrorContext(ctx, "Failed to write workbook", slog.Any("error", err))
	}
}
