package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/certbot"
	"github.com/edvin/wppanel/internal/model"
)

type SSLService struct {
	sites  *SiteService
	certs  CertManager
	logger zerolog.Logger
}

func NewSSLService(sites *SiteService, certs CertManager, logger zerolog.Logger) *SSLService {
	return &SSLService{
		sites:  sites,
		certs:  certs,
		logger: logger.With().Str("component", "ssl-service").Logger(),
	}
}

// Enable issues a certificate for the site and marks it TLS-enabled.
func (s *SSLService) Enable(ctx context.Context, siteID string) (*model.Site, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if err := s.certs.Issue(ctx, site.Domain); err != nil {
		return nil, err
	}
	if err := s.sites.SetSSLEnabled(ctx, site.ID, true); err != nil {
		return nil, err
	}
	site.SSLEnabled = true
	s.logger.Info().Str("domain", site.Domain).Msg("ssl enabled")
	return site, nil
}

// Disable deletes the site's certificate and marks it TLS-disabled.
func (s *SSLService) Disable(ctx context.Context, siteID string) (*model.Site, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if err := s.certs.Delete(ctx, site.Domain); err != nil {
		return nil, err
	}
	if err := s.sites.SetSSLEnabled(ctx, site.ID, false); err != nil {
		return nil, err
	}
	site.SSLEnabled = false
	s.logger.Info().Str("domain", site.Domain).Msg("ssl disabled")
	return site, nil
}

// Status reports whether a certificate covering the site exists. When
// certbot cannot be queried the status is unknown and carries the error.
func (s *SSLService) Status(ctx context.Context, siteID string) (*model.TLSStatus, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}

	st := &model.TLSStatus{Domain: site.Domain, SSLEnabled: site.SSLEnabled}
	certs, _, err := s.certs.Certificates(ctx)
	if err != nil {
		st.Status = model.TLSStatusUnknown
		st.Error = err.Error()
		return st, nil
	}

	if cert := certbot.Find(certs, site.Domain); cert != nil {
		st.Status = model.TLSStatusActive
		st.Certificate = cert
	} else {
		st.Status = model.TLSStatusInactive
	}
	return st, nil
}

// Renew renews all certificates close to expiry.
func (s *SSLService) Renew(ctx context.Context) error {
	return s.certs.Renew(ctx)
}

// CertificateList is the parsed and raw certbot inventory.
type CertificateList struct {
	Certificates []model.Certificate `json:"certificates"`
	Raw          string              `json:"raw"`
}

func (s *SSLService) Certificates(ctx context.Context) (*CertificateList, error) {
	certs, raw, err := s.certs.Certificates(ctx)
	if err != nil {
		return nil, err
	}
	if certs == nil {
		certs = []model.Certificate{}
	}
	return &CertificateList{Certificates: certs, Raw: raw}, nil
}

// RenewIfEnabled renews certificates when at least one site has TLS
// enabled. It reports whether a renewal ran.
func (s *SSLService) RenewIfEnabled(ctx context.Context) (bool, error) {
	var count int
	if err := s.sites.db.QueryRow(ctx, "SELECT COUNT(*) FROM sites WHERE ssl_enabled").Scan(&count); err != nil {
		return false, fmt.Errorf("count ssl sites: %w", err)
	}
	if count == 0 {
		return false, nil
	}
	return true, s.Renew(ctx)
}
