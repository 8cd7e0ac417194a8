package symptom

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-medguide-api/app/observability/metrics"
	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const (
	outcomeEmpty    = "empty"
	outcomeMatched  = "matched"
	outcomeFallback = "fallback"
)

var _ SymptomService = (*SymptomServiceImpl)(nil)

type SymptomService interface {
	// Check returns advice for a free-text symptom description. It never fails.
	Check(ctx context.Context, input string) types.Advice
	// Rules lists the active rule table in match order.
	Rules(ctx context.Context) []types.AdviceRule
}

type SymptomServiceImpl struct {
	logger *slog.Logger
	rules  []types.AdviceRule
}

// NewSymptomService builds the service around an already normalized rule table.
func NewSymptomService(rules []types.AdviceRule, logger *slog.Logger) *SymptomServiceImpl {
	return &SymptomServiceImpl{
		logger: logger,
		rules:  rules,
	}
}

func (s *SymptomServiceImpl) Check(ctx context.Context, input string) types.Advice {
	ctx, span := otel.Tracer("SymptomService").Start(ctx, "Check", trace.WithAttributes(
		attribute.Int("symptom.input_length", len(input)),
		attribute.Int("symptom.rules", len(s.rules)),
	))
	defer span.End()

	advice := types.Advice{
		Input:  input,
		Advice: Match(input, s.rules),
	}

	outcome := outcomeFallback
	switch rule, ok := MatchRule(input, s.rules); {
	case strings.TrimSpace(input) == "":
		outcome = outcomeEmpty
	case ok:
		outcome = outcomeMatched
		advice.Matched = true
		advice.Keyword = rule.Keyword
	}

	metrics.Get().SymptomChecksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("symptom.outcome", outcome), attribute.String("symptom.keyword", advice.Keyword))
	span.SetStatus(codes.Ok, "Advice resolved")

	s.logger.DebugContext(ctx, "Symptom check resolved",
		slog.String("method", "Check"),
		slog.String("outcome", outcome),
		slog.String("keyword", advice.Keyword))
	return advice
}

func (s *SymptomServiceImpl) Rules(_ context.Context) []types.AdviceRule {
	rules := make([]types.AdviceRule, len(s.rules))
	copy(rules, s.rules)
	return rules
}
