package symptom

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const (
	adviceCold      = "🤧 Likely a common cold. Rest, fluids, and over-the-counter remedies may help."
	adviceStomach   = "🤢 Stomach pain can have many causes. Rest, drink fluids, and see a doctor if severe."
	adviceVomit     = "🤮 Rest and sip clear fluids. If vomiting is persistent, consult a healthcare provider."
	adviceDizzy     = "😵‍💫 Dizziness may be caused by dehydration, low blood sugar, or other conditions. Sit/lie down and hydrate."
	adviceBreathing = "🚨 Seek medical attention immediately. Breathing issues can be serious."
	adviceFatigue   = "😴 Fatigue can result from lack of rest, stress, or illness. Rest and hydrate."
)

// defaultRules is ordered; the first matching keyword wins.
var defaultRules = []types.AdviceRule{
	{Keyword: "fever", Advice: "🤒 You may have an infection. Stay hydrated and consider seeing a doctor if it persists."},
	{Keyword: "headache", Advice: "💆 Headaches can be caused by stress or dehydration. Rest, drink water, and monitor."},
	{Keyword: "cough", Advice: "😷 Persistent cough may indicate flu or respiratory issues. Monitor your temperature."},
	{Keyword: "cold", Advice: adviceCold},
	{Keyword: "runny nose", Advice: adviceCold},
	{Keyword: "sore throat", Advice: "🗣️ Sore throat could be due to infection or irritation. Gargle warm salt water and stay hydrated."},
	{Keyword: "stomach pain", Advice: adviceStomach},
	{Keyword: "abdominal pain", Advice: adviceStomach},
	{Keyword: "diarrhea", Advice: "🚰 Stay hydrated. If diarrhea persists more than 2 days or is severe, seek medical care."},
	{Keyword: "vomit", Advice: adviceVomit},
	{Keyword: "nausea", Advice: adviceVomit},
	{Keyword: "dizzy", Advice: adviceDizzy},
	{Keyword: "dizziness", Advice: adviceDizzy},
	{Keyword: "shortness of breath", Advice: adviceBreathing},
	{Keyword: "difficulty breathing", Advice: adviceBreathing},
	{Keyword: "chest pain", Advice: "🚨 Chest pain is a medical emergency. Call emergency services right away."},
	{Keyword: "rash", Advice: "🌡️ Skin rashes can be allergies or infections. If spreading or with fever, see a doctor."},
	{Keyword: "fatigue", Advice: adviceFatigue},
	{Keyword: "tired", Advice: adviceFatigue},
	{Keyword: "back pain", Advice: "🦴 Back pain is often caused by strain. Rest, gentle stretching, and good posture can help."},
}

// DefaultRules returns a copy of the built-in rule table.
func DefaultRules() []types.AdviceRule {
	rules := make([]types.AdviceRule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// NormalizeRules prepares a configured rule table: keywords are trimmed and
// lower-cased, and blank keywords or advice are rejected. An empty table yields
// the default rules.
func NormalizeRules(rules []types.AdviceRule) ([]types.AdviceRule, error) {
	if len(rules) == 0 {
		return DefaultRules(), nil
	}
	out := make([]types.AdviceRule, 0, len(rules))
	for i, r := range rules {
		keyword := strings.ToLower(strings.TrimSpace(r.Keyword))
		if keyword == "" {
			return nil, fmt.Errorf("rule %d has a blank keyword: %w", i, types.ErrValidation)
		}
		if strings.TrimSpace(r.Advice) == "" {
			return nil, fmt.Errorf("rule %d (%q) has no advice: %w", i, keyword, types.ErrValidation)
		}
		out = append(out, types.AdviceRule{Keyword: keyword, Advice: r.Advice})
	}
	return out, nil
}
