package symptom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

func TestMatch(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", EmptyInputMessage},
		{"whitespace only", "   \t\n ", EmptyInputMessage},
		{"single keyword", "I have a fever", rules[0].Advice},
		{"case insensitive", "  HEADACHE since morning ", rules[1].Advice},
		{"first rule wins", "headache and fever", rules[0].Advice},
		{"multi word keyword", "my back pain is bad", "🦴 Back pain is often caused by strain. Rest, gentle stretching, and good posture can help."},
		{"alternate keyword shares advice", "runny nose", adviceCold},
		{"unknown symptom", "itchy elbow", FallbackMessage},
		{"substring inside another word", "stop scolding me", adviceCold},
		{"emergency", "sudden chest pain", "🚨 Chest pain is a medical emergency. Call emergency services right away."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.input, rules))
		})
	}
}

func TestMatch_Idempotent(t *testing.T) {
	rules := DefaultRules()
	for _, input := range []string{"", "Fever", "nothing here", "dizzy and tired"} {
		assert.Equal(t, Match(input, rules), Match(input, rules))
	}
}

func TestMatch_EmptyRuleTable(t *testing.T) {
	assert.Equal(t, FallbackMessage, Match("fever", nil))
	assert.Equal(t, EmptyInputMessage, Match(" ", nil))
}

func TestMatchRule(t *testing.T) {
	rules := []types.AdviceRule{
		{Keyword: "pain", Advice: "generic pain"},
		{Keyword: "chest pain", Advice: "shadowed"},
	}

	rule, ok := MatchRule("Chest Pain", rules)
	require.True(t, ok)
	assert.Equal(t, "pain", rule.Keyword)

	_, ok = MatchRule("   ", rules)
	assert.False(t, ok)

	t.Run("empty keyword matches everything", func(t *testing.T) {
		catchAll := append([]types.AdviceRule{{Keyword: "", Advice: "catch-all"}}, rules...)

		rule, ok := MatchRule("Chest Pain", catchAll)
		require.True(t, ok)
		assert.Equal(t, "catch-all", rule.Advice)
		assert.Equal(t, "catch-all", Match("anything at all", catchAll))

		_, ok = MatchRule("   ", catchAll)
		assert.False(t, ok, "blank input still matches nothing")
	})
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 20)
	assert.Equal(t, "fever", rules[0].Keyword)
	assert.Equal(t, "back pain", rules[len(rules)-1].Keyword)

	rules[0].Advice = "changed"
	assert.NotEqual(t, "changed", DefaultRules()[0].Advice)
}

func TestNormalizeRules(t *testing.T) {
	t.Run("empty falls back to defaults", func(t *testing.T) {
		rules, err := NormalizeRules(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("keywords are lower-cased and trimmed", func(t *testing.T) {
		rules, err := NormalizeRules([]types.AdviceRule{{Keyword: "  Sneezing ", Advice: "bless you"}})
		require.NoError(t, err)
		assert.Equal(t, []types.AdviceRule{{Keyword: "sneezing", Advice: "bless you"}}, rules)
	})

	t.Run("blank keyword rejected", func(t *testing.T) {
		_, err := NormalizeRules([]types.AdviceRule{{Keyword: " ", Advice: "x"}})
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("blank advice rejected", func(t *testing.T) {
		_, err := NormalizeRules([]types.AdviceRule{{Keyword: "cough", Advice: ""}})
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}
