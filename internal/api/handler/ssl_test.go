package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/model"
)

func TestSSLEnable_SiteNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewSSL(env.svcs.SSL)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(noRows())

	rec := httptest.NewRecorder()
	h.Enable(rec, withChiURLParams(newRequest(http.MethodPost, "/api/ssl/"+validID+"/enable", nil), map[string]string{"siteID": validID}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env.certs.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

func TestSSLEnable_CertbotMissing(t *testing.T) {
	env := newTestEnv(t)
	h := NewSSL(env.svcs.SSL)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(siteRow(testSite(model.StatusActive, false)))
	env.certs.On("Issue", mock.Anything, "example.com").Return(fault.New(fault.KindCommand, "certbot not installed"))

	rec := httptest.NewRecorder()
	h.Enable(rec, withChiURLParams(newRequest(http.MethodPost, "/api/ssl/"+validID+"/enable", nil), map[string]string{"siteID": validID}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "certbot not installed", body["error"])
	assert.Equal(t, "command", body["code"])
}

func TestSSLRenew(t *testing.T) {
	env := newTestEnv(t)
	h := NewSSL(env.svcs.SSL)
	env.certs.On("Renew", mock.Anything).Return(nil)

	rec := httptest.NewRecorder()
	h.Renew(rec, newRequest(http.MethodPost, "/api/ssl/renew", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SSL certificates renewed successfully", decodeErrorResponse(rec)["message"])
}

func TestSSLCertificates(t *testing.T) {
	env := newTestEnv(t)
	h := NewSSL(env.svcs.SSL)
	env.certs.On("Certificates", mock.Anything).Return([]model.Certificate{
		{Name: "example.com", Domains: []string{"example.com", "www.example.com"}, Valid: true},
	}, "raw output", nil)

	rec := httptest.NewRecorder()
	h.Certificates(rec, newRequest(http.MethodGet, "/api/ssl/certificates", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Certificates []model.Certificate `json:"certificates"`
		Raw          string              `json:"raw"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Certificates, 1)
	assert.Equal(t, "raw output", body.Raw)
}

func TestSSLCertificates_Error(t *testing.T) {
	env := newTestEnv(t)
	h := NewSSL(env.svcs.SSL)
	env.certs.On("Certificates", mock.Anything).Return(nil, "", errors.New("permission denied"))

	rec := httptest.NewRecorder()
	h.Certificates(rec, newRequest(http.MethodGet, "/api/ssl/certificates", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
