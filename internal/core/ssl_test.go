package core

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/model"
)

func newSSLHarness() (*siteHarness, *SSLService) {
	h := newSiteHarness(nil)
	return h, NewSSLService(h.svc, h.certs, zerolog.Nop())
}

// ---------- Enable ----------

func TestSSLService_Enable_Success(t *testing.T) {
	h, svc := newSSLHarness()
	ctx := context.Background()
	site := testSite(testSiteID, "example.com", model.StatusActive, false)

	h.db.On("QueryRow", ctx, sqlContains("FROM sites WHERE id"), []any{testSiteID}).Return(siteRow(site))
	h.certs.On("Issue", ctx, "example.com").Return(nil)
	h.db.On("Exec", ctx, sqlContains("SET ssl_enabled"), []any{true, testSiteID}).Return(execTag("UPDATE 1"), nil)

	got, err := svc.Enable(ctx, testSiteID)
	require.NoError(t, err)
	assert.True(t, got.SSLEnabled)
	h.assertExpectations(t)
}

func TestSSLService_Enable_CertbotFails(t *testing.T) {
	h, svc := newSSLHarness()
	ctx := context.Background()
	site := testSite(testSiteID, "example.com", model.StatusActive, false)

	h.db.On("QueryRow", ctx, sqlContains("FROM sites WHERE id"), []any{testSiteID}).Return(siteRow(site))
	h.certs.On("Issue", ctx, "example.com").Return(fault.New(fault.KindCommand, "certbot not installed"))

	_, err := svc.Enable(ctx, testSiteID)
	require.Error(t, err)
	assert.Equal(t, "certbot not installed", err.Error())
	h.db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- Disable ----------

func TestSSLService_Disable_Success(t *testing.T) {
	h, svc := newSSLHarness()
	ctx := context.Background()
	site := testSite(testSiteID, "example.com", model.StatusActive, true)

	h.db.On("QueryRow", ctx, sqlContains("FROM sites WHERE id"), []any{testSiteID}).Return(siteRow(site))
	h.certs.On("Delete", ctx, "example.com").Return(nil)
	h.db.On("Exec", ctx, sqlContains("SET ssl_enabled"), []any{false, testSiteID}).Return(execTag("UPDATE 1"), nil)

	got, err := svc.Disable(ctx, testSiteID)
	require.NoError(t, err)
	assert.False(t, got.SSLEnabled)
	h.assertExpectations(t)
}

// ---------- Status ----------

func TestSSLService_Status(t *testing.T) {
	certs := []model.Certificate{
		{Name: "example.com", Domains: []string{"example.com", "www.example.com"}, Valid: true},
	}

	tests := []struct {
		name     string
		domain   string
		certs    []model.Certificate
		certErr  error
		want     string
		wantCert bool
		wantErr  string
	}{
		{name: "active", domain: "example.com", certs: certs, want: model.TLSStatusActive, wantCert: true},
		{name: "inactive", domain: "other.org", certs: certs, want: model.TLSStatusInactive},
		{name: "unknown", domain: "example.com", certErr: errors.New("certbot not installed"), want: model.TLSStatusUnknown, wantErr: "certbot not installed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newSSLHarness()
			ctx := context.Background()
			site := testSite(testSiteID, tt.domain, model.StatusActive, true)

			h.db.On("QueryRow", ctx, sqlContains("FROM sites WHERE id"), []any{testSiteID}).Return(siteRow(site))
			h.certs.On("Certificates", ctx).Return(tt.certs, "", tt.certErr)

			st, err := svc.Status(ctx, testSiteID)
			require.NoError(t, err)
			assert.Equal(t, tt.domain, st.Domain)
			assert.True(t, st.SSLEnabled)
			assert.Equal(t, tt.want, st.Status)
			assert.Equal(t, tt.wantCert, st.Certificate != nil)
			assert.Equal(t, tt.wantErr, st.Error)
		})
	}
}

// ---------- Certificates ----------

func TestSSLService_Certificates_Empty(t *testing.T) {
	h, svc := newSSLHarness()
	ctx := context.Background()
	h.certs.On("Certificates", ctx).Return(nil, "No certificates found.", nil)

	list, err := svc.Certificates(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list.Certificates)
	assert.Empty(t, list.Certificates)
	assert.Equal(t, "No certificates found.", list.Raw)
}

// ---------- RenewIfEnabled ----------

func TestSSLService_RenewIfEnabled_NoSites(t *testing.T) {
	h, svc := newSSLHarness()
	ctx := context.Background()
	h.db.On("QueryRow", ctx, sqlContains("WHERE ssl_enabled"), []any(nil)).Return(intRow(0))

	ran, err := svc.RenewIfEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, ran)
	h.certs.AssertNotCalled(t, "Renew", mock.Anything)
}

func TestSSLService_RenewIfEnabled_Renews(t *testing.T) {
	h, svc := newSSLHarness()
	ctx := context.Background()
	h.db.On("QueryRow", ctx, sqlContains("WHERE ssl_enabled"), []any(nil)).Return(intRow(2))
	h.certs.On("Renew", ctx).Return(nil)

	ran, err := svc.RenewIfEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	h.assertExpectations(t)
}
