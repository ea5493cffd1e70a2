package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/backup"
	"github.com/edvin/wppanel/internal/dbadmin"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/sysstats"
	"github.com/edvin/wppanel/internal/wordpress"
)

// SiteFiles manages the files of WordPress sites on disk.
type SiteFiles interface {
	SitePath(domain string) (string, error)
	Stage(ctx context.Context, domain string) (*wordpress.Staging, error)
	Download(ctx context.Context, st *wordpress.Staging) error
	Configure(st *wordpress.Staging, creds wordpress.Credentials) error
	Secure(st *wordpress.Staging) error
	Publish(st *wordpress.Staging) error
	Discard(st *wordpress.Staging) error
	Remove(domain string) error
	DiskUsage(domain string) (int64, error)
	InstalledVersion(domain string) string
	Update(ctx context.Context, domain string) (*wordpress.UpdateResult, error)
}

// DatabaseProvisioner creates and drops per-site MySQL databases.
type DatabaseProvisioner interface {
	Provision(ctx context.Context, dbName, dbUser, dbPassword string) (*dbadmin.Provisioned, error)
	Undo(ctx context.Context, res *dbadmin.Provisioned) error
	Drop(ctx context.Context, dbName, dbUser string) error
}

// DatabaseDumper exports and imports a site database.
type DatabaseDumper interface {
	Dump(ctx context.Context, dbName, destPath string) error
	Restore(ctx context.Context, dbName, srcPath string) error
}

// CertManager issues and manages TLS certificates.
type CertManager interface {
	Issue(ctx context.Context, domain string) error
	Delete(ctx context.Context, domain string) error
	Renew(ctx context.Context) error
	Certificates(ctx context.Context) ([]model.Certificate, string, error)
}

// OffsiteUploader copies backup files off the host.
type OffsiteUploader interface {
	Upload(ctx context.Context, domain string, paths ...string) error
}

// SystemCollector samples host resource usage.
type SystemCollector interface {
	Collect(ctx context.Context) (*sysstats.System, error)
}

// Deps are the collaborators the services are built from. Uploader may be
// nil when no offsite storage is configured.
type Deps struct {
	DB               DB
	Logger           zerolog.Logger
	Files            SiteFiles
	Provisioner      DatabaseProvisioner
	Dumper           DatabaseDumper
	Certs            CertManager
	Backups          *backup.Store
	Uploader         OffsiteUploader
	System           SystemCollector
	Verifier         CredentialVerifier
	Auth             AuthConfig
	SettingDefaults  map[string]string
	DefaultRetention int
}

type Services struct {
	Settings     *SettingsService
	Site         *SiteService
	SSL          *SSLService
	Backup       *BackupService
	SecurityScan *SecurityScanService
	Stats        *StatsService
	Auth         *AuthService
}

func NewServices(d Deps) *Services {
	locks := newDomainLocks()
	settings := NewSettingsService(d.DB, d.SettingDefaults)
	sites := NewSiteService(d.DB, d.Logger, d.Files, d.Provisioner, d.Certs, settings, locks)

	return &Services{
		Settings:     settings,
		Site:         sites,
		SSL:          NewSSLService(sites, d.Certs, d.Logger),
		Backup:       NewBackupService(d.DB, d.Logger, sites, d.Files, d.Backups, d.Dumper, d.Uploader, settings, locks, d.DefaultRetention),
		SecurityScan: NewSecurityScanService(d.DB),
		Stats:        NewStatsService(d.DB, d.Files, d.System),
		Auth:         NewAuthService(d.Verifier, d.Auth),
	}
}
