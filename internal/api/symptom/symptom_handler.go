package symptom

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/internal/api"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

type SymptomHandler struct {
	symptomService SymptomService
	logger         *slog.Logger
}

func NewSymptomHandler(symptomService SymptomService, logger *slog.Logger) *SymptomHandler {
	return &SymptomHandler{
		symptomService: symptomService,
		logger:         logger,
	}
}

// CheckSymptoms godoc
// @Summary      Get advice for a symptom description
// @Description  Returns the advice of the first keyword found in the input. Blank or unknown input still returns 200 with a guidance message.
// @Tags         symptoms
// @Accept       json
// @Produce      json
// @Param        request body types.SymptomCheckRequest true "Symptoms"
// @Success      200 {object} types.Advice
// @Failure      400 {object} map[string]interface{}
// @Router       /symptoms/check [post]
func (h *SymptomHandler) CheckSymptoms(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SymptomHandler").Start(r.Context(), "CheckSymptoms", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/symptoms/check"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "CheckSymptoms"))

	var req types.SymptomCheckRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	advice := h.symptomService.Check(ctx, req.Symptoms)
	api.WriteJSONResponse(w, r, http.StatusOK, advice)
}

// ListRules godoc
// @Summary      List symptom rules
// @Tags         symptoms
// @Produce      json
// @Success      200 {array} types.AdviceRule
// @Router       /symptoms/rules [get]
func (h *SymptomHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.symptomService.Rules(r.Context()))
}
