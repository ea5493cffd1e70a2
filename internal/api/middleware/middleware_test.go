package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/wppanel/internal/model"
)

type fakeValidator struct {
	claims *model.Claims
	err    error
	got    string
}

func (f *fakeValidator) ValidateToken(token string) (*model.Claims, error) {
	f.got = token
	return f.claims, f.err
}

func okHandler(t *testing.T, seen **model.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = GetClaims(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAuth_MissingHeader(t *testing.T) {
	handler := Auth(&fakeValidator{})(okHandler(t, nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sites", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization header", errorBody(t, rec))
}

func TestAuth_NotBearer(t *testing.T) {
	handler := Auth(&fakeValidator{})(okHandler(t, nil))

	req := httptest.NewRequest("GET", "/api/sites", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid authorization format", errorBody(t, rec))
}

func TestAuth_InvalidToken(t *testing.T) {
	handler := Auth(&fakeValidator{err: errors.New("token expired")})(okHandler(t, nil))

	req := httptest.NewRequest("GET", "/api/sites", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", errorBody(t, rec))
}

func TestAuth_ValidTokenInjectsClaims(t *testing.T) {
	claims := &model.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin", ID: "jti-1"}}
	v := &fakeValidator{claims: claims}
	var seen *model.Claims
	handler := Auth(v)(okHandler(t, &seen))

	req := httptest.NewRequest("GET", "/api/sites", nil)
	req.Header.Set("Authorization", "bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc.def.ghi", v.got)
	require.NotNil(t, seen)
	assert.Equal(t, "admin", seen.Subject)
}

func TestGetClaims_Missing(t *testing.T) {
	assert.Nil(t, GetClaims(httptest.NewRequest("GET", "/", nil).Context()))
}

func TestRequestLogger_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotEmpty(t, entry["request_id"])
	assert.Equal(t, "/api/health", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/api/sites/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/sites/abc-123", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() != "wppanel_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["path"] == "/api/sites/{id}" && labels["status"] == "404" {
				found = true
			}
			assert.NotEqual(t, "/api/sites/abc-123", labels["path"])
		}
	}
	assert.True(t, found)
}
