package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/backup"
	"github.com/edvin/wppanel/internal/core"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
)

const validID = "test-id-1"

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newRequest creates a new HTTP request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// newRequestRaw creates a new HTTP request with a raw string body.
func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParams adds chi URL parameters to the request context.
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeErrorResponse parses the JSON error response body into a map.
func decodeErrorResponse(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

func testSite(status string, ssl bool) model.Site {
	return model.Site{
		ID:         validID,
		Domain:     "example.com",
		WPVersion:  "6.5.2",
		DBName:     platform.DatabaseName("example.com"),
		DBUser:     platform.DatabaseUser("example.com"),
		DBPassword: "secret",
		Status:     status,
		SSLEnabled: ssl,
		CreatedAt:  testTime,
		UpdatedAt:  testTime,
	}
}

type testEnv struct {
	db        *handlerMockDB
	certs     *mockCerts
	collector *mockCollector
	svcs      *core.Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:        &handlerMockDB{},
		certs:     &mockCerts{},
		collector: &mockCollector{},
	}
	env.svcs = core.NewServices(core.Deps{
		DB:       env.db,
		Logger:   zerolog.Nop(),
		Certs:    env.certs,
		Backups:  backup.NewStore(zerolog.Nop(), t.TempDir()),
		System:   env.collector,
		Verifier: core.StaticVerifier{Username: "admin", Password: "hunter2"},
		Auth: core.AuthConfig{
			Secret: "0123456789abcdef0123456789abcdef",
			Issuer: "wppanel",
			TTL:    time.Hour,
		},
		SettingDefaults: map[string]string{
			model.SettingAutoSSL:             "false",
			model.SettingBackupRetentionDays: "7",
		},
		DefaultRetention: 7,
	})
	return env
}
