package symptom

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

func setupSymptomHandlerTest() *SymptomHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewSymptomService(DefaultRules(), logger)
	return NewSymptomHandler(service, logger)
}

func TestSymptomServiceImpl_Check(t *testing.T) {
	service := NewSymptomService(DefaultRules(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	advice := service.Check(ctx, "Persistent COUGH")
	assert.True(t, advice.Matched)
	assert.Equal(t, "cough", advice.Keyword)
	assert.Equal(t, "Persistent COUGH", advice.Input)

	advice = service.Check(ctx, "")
	assert.False(t, advice.Matched)
	assert.Equal(t, EmptyInputMessage, advice.Advice)

	advice = service.Check(ctx, "broken toe")
	assert.False(t, advice.Matched)
	assert.Equal(t, FallbackMessage, advice.Advice)
}

func TestSymptomHandler_CheckSymptoms(t *testing.T) {
	handler := setupSymptomHandlerTest()

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/symptoms/check", strings.NewReader(`{"symptoms":"feeling dizzy"}`))
		rec := httptest.NewRecorder()

		handler.CheckSymptoms(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var advice types.Advice
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &advice))
		assert.Equal(t, adviceDizzy, advice.Advice)
		assert.Equal(t, "dizzy", advice.Keyword)
	})

	t.Run("blank symptoms still succeed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/symptoms/check", strings.NewReader(`{"symptoms":"  "}`))
		rec := httptest.NewRecorder()

		handler.CheckSymptoms(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please enter your symptoms")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/symptoms/check", strings.NewReader(`{"symptoms":`))
		rec := httptest.NewRecorder()

		handler.CheckSymptoms(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/symptoms/check", strings.NewReader(`{"symptom":"fever"}`))
		rec := httptest.NewRecorder()

		handler.CheckSymptoms(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown key")
	})
}

func TestSymptomHandler_ListRules(t *testing.T) {
	handler := setupSymptomHandlerTest()
	rec := httptest.NewRecorder()

	handler.ListRules(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symptoms/rules", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var rules []types.AdviceRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Len(t, rules, len(DefaultRules()))
}

func TestSymptomHandler_FirstAidGuide(t *testing.T) {
	handler := setupSymptomHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/first-aid", nil)
	rec := httptest.NewRecorder()
	handler.FirstAidGuide(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.FirstAidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Guides, 5)
	assert.Equal(t, "Choking", resp.Guides[1].Title)
	assert.Len(t, resp.Guides[0].Steps, 4)
	assert.Contains(t, resp.Disclaimer, "professional medical")
}

func TestFirstAid_ReturnsCopy(t *testing.T) {
	first := FirstAid()
	first.Guides[0].Steps[0] = "changed"
	first.Guides[0].Title = "changed"

	second := FirstAid()
	assert.Equal(t, "Check responsiveness and breathing.", second.Guides[0].Steps[0])
	assert.NotEqual(t, "changed", second.Guides[0].Title)
}
