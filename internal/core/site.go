package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/crypto"
	"github.com/edvin/wppanel/internal/dbadmin"
	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/metrics"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
	"github.com/edvin/wppanel/internal/saga"
	"github.com/edvin/wppanel/internal/wordpress"
)

const siteColumns = `id, domain, wp_version, db_name, db_user, db_password, status, ssl_enabled, created_at, updated_at`

type SiteService struct {
	db          DB
	logger      zerolog.Logger
	files       SiteFiles
	provisioner DatabaseProvisioner
	certs       CertManager
	settings    *SettingsService
	locks       *domainLocks
}

func NewSiteService(db DB, logger zerolog.Logger, files SiteFiles, provisioner DatabaseProvisioner, certs CertManager, settings *SettingsService, locks *domainLocks) *SiteService {
	return &SiteService{
		db:          db,
		logger:      logger.With().Str("component", "site-service").Logger(),
		files:       files,
		provisioner: provisioner,
		certs:       certs,
		settings:    settings,
		locks:       locks,
	}
}

func scanSite(row pgx.Row) (*model.Site, error) {
	var s model.Site
	err := row.Scan(&s.ID, &s.Domain, &s.WPVersion, &s.DBName, &s.DBUser, &s.DBPassword,
		&s.Status, &s.SSLEnabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create provisions a new WordPress site for domain: the release is
// assembled in a staging directory, a database and user are created, the
// configuration is written and the directory is published. Any failure
// undoes the completed steps.
func (s *SiteService) Create(ctx context.Context, domain string) (site *model.Site, err error) {
	defer metrics.ObserveWorkflow("site_create", time.Now(), &err)

	domain = platform.NormalizeDomain(domain)
	if !platform.ValidDomain(domain) {
		return nil, fault.Validation("invalid domain %q", domain)
	}

	unlock := s.locks.Lock(domain)
	defer unlock()

	exists, err := s.domainExists(ctx, domain)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fault.Conflict("site already exists")
	}

	now := time.Now()
	site = &model.Site{
		ID:         platform.NewID(),
		Domain:     domain,
		DBName:     platform.DatabaseName(domain),
		DBUser:     platform.DatabaseUser(domain),
		DBPassword: crypto.GeneratePassword(),
		Status:     model.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var st *wordpress.Staging
	sg := saga.New("create-site", s.logger.With().Str("domain", domain).Logger())
	sg.Add("stage",
		func(ctx context.Context) error {
			var err error
			st, err = s.files.Stage(ctx, domain)
			return err
		},
		func(context.Context) error { return s.files.Discard(st) },
	)
	sg.Add("download", func(ctx context.Context) error { return s.files.Download(ctx, st) }, nil)
	var provisioned *dbadmin.Provisioned
	sg.Add("provision database",
		func(ctx context.Context) error {
			res, err := s.provisioner.Provision(ctx, site.DBName, site.DBUser, site.DBPassword)
			if err != nil {
				return err
			}
			if !res.Fresh() {
				// A new site never adopts a database or user it did not create.
				if uerr := s.provisioner.Undo(context.WithoutCancel(ctx), res); uerr != nil {
					s.logger.Error().Err(uerr).Str("database", site.DBName).Msg("undo partial provisioning")
				}
				return fault.Conflict("database %s or user %s already exists", site.DBName, site.DBUser)
			}
			provisioned = res
			return nil
		},
		func(ctx context.Context) error { return s.provisioner.Undo(ctx, provisioned) },
	)
	sg.Add("write config", func(context.Context) error {
		return s.files.Configure(st, wordpress.Credentials{
			Name:     site.DBName,
			User:     site.DBUser,
			Password: site.DBPassword,
		})
	}, nil)
	sg.Add("set permissions", func(context.Context) error { return s.files.Secure(st) }, nil)
	sg.Add("publish",
		func(context.Context) error { return s.files.Publish(st) },
		func(context.Context) error { return s.files.Remove(domain) },
	)
	sg.Add("record site", func(ctx context.Context) error {
		site.WPVersion = s.files.InstalledVersion(domain)
		return s.insert(ctx, site)
	}, nil)

	if err := sg.Run(ctx); err != nil {
		return nil, err
	}
	s.logger.Info().Str("domain", domain).Str("id", site.ID).Msg("site created")

	s.autoIssueCertificate(ctx, site)
	return site, nil
}

// autoIssueCertificate requests a certificate for a new site when the
// auto_ssl setting is on. Failures leave ssl_enabled false.
func (s *SiteService) autoIssueCertificate(ctx context.Context, site *model.Site) {
	enabled, err := s.settings.Bool(ctx, model.SettingAutoSSL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read auto_ssl setting")
		return
	}
	if !enabled {
		return
	}
	if err := s.certs.Issue(ctx, site.Domain); err != nil {
		s.logger.Warn().Err(err).Str("domain", site.Domain).Msg("automatic certificate issuance failed")
		return
	}
	if err := s.SetSSLEnabled(ctx, site.ID, true); err != nil {
		s.logger.Warn().Err(err).Str("domain", site.Domain).Msg("record certificate state")
		return
	}
	site.SSLEnabled = true
}

func (s *SiteService) domainExists(ctx context.Context, domain string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM sites WHERE domain = $1)", domain).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site %s: %w", domain, err)
	}
	return exists, nil
}

func (s *SiteService) insert(ctx context.Context, site *model.Site) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sites (`+siteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		site.ID, site.Domain, site.WPVersion, site.DBName, site.DBUser, site.DBPassword,
		site.Status, site.SSLEnabled, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

func (s *SiteService) GetByID(ctx context.Context, id string) (*model.Site, error) {
	site, err := scanSite(s.db.QueryRow(ctx, "SELECT "+siteColumns+" FROM sites WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("site not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get site %s: %w", id, err)
	}
	return site, nil
}

func (s *SiteService) List(ctx context.Context) ([]model.Site, error) {
	return s.list(ctx, "SELECT "+siteColumns+" FROM sites ORDER BY created_at DESC")
}

// ListByStatus returns the sites with the given status.
func (s *SiteService) ListByStatus(ctx context.Context, status string) ([]model.Site, error) {
	return s.list(ctx, "SELECT "+siteColumns+" FROM sites WHERE status = $1 ORDER BY domain", status)
}

func (s *SiteService) list(ctx context.Context, query string, args ...any) ([]model.Site, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	sites := []model.Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}
	return sites, nil
}

// Delete removes the site's certificate, files, database and record.
// Certificate removal is best-effort; file and database failures stop the
// deletion so it can be retried.
func (s *SiteService) Delete(ctx context.Context, id string) (err error) {
	defer metrics.ObserveWorkflow("site_delete", time.Now(), &err)

	site, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(site.Domain)
	defer unlock()

	if site.SSLEnabled {
		if err := s.certs.Delete(ctx, site.Domain); err != nil {
			s.logger.Warn().Err(err).Str("domain", site.Domain).Msg("certificate removal failed")
		}
	}
	if err := s.files.Remove(site.Domain); err != nil {
		return err
	}
	if err := s.provisioner.Drop(ctx, site.DBName, site.DBUser); err != nil {
		return fault.Wrap(fault.KindCommand, err, "drop database %s", site.DBName)
	}
	if _, err := s.db.Exec(ctx, "DELETE FROM sites WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete site %s: %w", id, err)
	}

	s.logger.Info().Str("domain", site.Domain).Str("id", id).Msg("site deleted")
	return nil
}

// SetStatus changes the operator-visible status of a site.
func (s *SiteService) SetStatus(ctx context.Context, id, status string) (*model.Site, error) {
	if !model.ValidSiteStatus(status) {
		return nil, fault.Validation("invalid status %q", status)
	}
	site, err := scanSite(s.db.QueryRow(ctx,
		`UPDATE sites SET status = $1, updated_at = now() WHERE id = $2
		 RETURNING `+siteColumns,
		status, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("site not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update site %s status: %w", id, err)
	}
	return site, nil
}

// SetSSLEnabled records whether the site is served over TLS.
func (s *SiteService) SetSSLEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE sites SET ssl_enabled = $1, updated_at = now() WHERE id = $2",
		enabled, id,
	)
	if err != nil {
		return fmt.Errorf("update site %s ssl: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("site not found")
	}
	return nil
}

// Update replaces the WordPress core files of a site with the latest
// release and records the new version.
func (s *SiteService) Update(ctx context.Context, id string) (res *wordpress.UpdateResult, err error) {
	defer metrics.ObserveWorkflow("site_update", time.Now(), &err)

	site, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(site.Domain)
	defer unlock()

	res, err = s.files.Update(ctx, site.Domain)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx,
		"UPDATE sites SET wp_version = $1, updated_at = now() WHERE id = $2",
		res.Version, id,
	); err != nil {
		return nil, fmt.Errorf("record site %s version: %w", id, err)
	}

	s.logger.Info().Str("domain", site.Domain).Str("version", res.Version).Msg("site updated")
	return res, nil
}
