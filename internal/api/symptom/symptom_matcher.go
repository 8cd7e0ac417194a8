package symptom

import (
	"strings"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const (
	EmptyInputMessage = "⚠️ Please enter your symptoms to get advice."
	FallbackMessage   = "ℹ️ Symptom not recognized. Please consult a healthcare provider for accurate advice."
)

// MatchRule returns the first rule whose keyword occurs in the normalized input.
// Matching is plain substring containment, so "cold" also matches "scolding"
// and an empty keyword matches any non-blank input.
func MatchRule(input string, rules []types.AdviceRule) (types.AdviceRule, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return types.AdviceRule{}, false
	}
	for _, rule := range rules {
		if strings.Contains(normalized, rule.Keyword) {
			return rule, true
		}
	}
	return types.AdviceRule{}, false
}

// Match returns the advice for a free-text symptom description. It never fails:
// blank input yields EmptyInputMessage and unknown symptoms yield FallbackMessage.
func Match(input string, rules []types.AdviceRule) string {
	if strings.TrimSpace(input) == "" {
		return EmptyInputMessage
	}
	if rule, ok := MatchRule(input, rules); ok {
		return rule.Advice
	}
	return FallbackMessage
}
