package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geousd/internal/config"
	"github.com/woozymasta/geousd/internal/sink"
)

const featureDoc = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"id": 1}, "geometry": {"type": "Point", "coordinates": [10, 20]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Unsupported", "coordinates": [0, 0]}}
	]
}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	srv, err := NewServerContext(config.Default())
	require.NoError(t, err)

	return RequestLogger(srv.Routes())
}

func TestHandleConvert(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/convert?format=json", strings.NewReader(featureDoc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Run-Id"))
	assert.Equal(t, "1", rec.Header().Get("X-Skipped"))
	assert.Equal(t, "0", rec.Header().Get("X-Warnings"))

	var doc sink.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Primitives, 1)
	assert.Equal(t, sink.PointsName, doc.Primitives[0].Name)
}

func TestHandleConvertDefaultFormat(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(featureDoc))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/vnd.usda", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "#usda 1.0"))
}

func TestHandleConvertErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"get", http.MethodGet, "/api/convert", "", http.StatusMethodNotAllowed},
		{"unknown format", http.MethodPost, "/api/convert?format=obj", featureDoc, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/convert", `{"type": `, http.StatusBadRequest},
		{"unknown object", http.MethodPost, "/api/convert", `{"type": "Topology"}`, http.StatusBadRequest},
	}

	h := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, rec.Header().Get("X-Run-Id"))
		})
	}
}

func TestHandleFormats(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var formats []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &formats))
	assert.Equal(t, config.Formats, formats)
}

func TestHandleConfig(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, *config.Default(), cfg)
}

func TestNewServerContextRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Projection.Strategy = "polar"

	_, err := NewServerContext(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
