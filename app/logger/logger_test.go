package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	New("production", &buf).Info("hello", slog.String("k", "v"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestNew_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	New("", &buf).Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := middleware.RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var done map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &done))
	assert.Equal(t, "Request completed", done["msg"])
	assert.EqualValues(t, http.StatusTeapot, done["status"])
	assert.EqualValues(t, len("short and stout"), done["bytes_written"])
	assert.NotEmpty(t, done["req_id"])
	assert.Equal(t, "/api/v1/ping", done["path"])
}
