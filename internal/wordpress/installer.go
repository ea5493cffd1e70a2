// Package wordpress installs, configures and updates WordPress sites on the
// local filesystem.
package wordpress

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/archive"
	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/platform"
)

// Installer manages site directories under a single sites root. Site files
// are assembled in a hidden staging directory and renamed into place, so a
// live site directory is never half-built.
type Installer struct {
	logger      zerolog.Logger
	fetcher     *Fetcher
	sitesDir    string
	downloadURL string
	dbHost      string
	now         func() time.Time
}

// NewInstaller creates an Installer rooted at sitesDir.
func NewInstaller(logger zerolog.Logger, fetcher *Fetcher, sitesDir, downloadURL, dbHost string) *Installer {
	return &Installer{
		logger:      logger.With().Str("component", "wordpress-installer").Logger(),
		fetcher:     fetcher,
		sitesDir:    sitesDir,
		downloadURL: downloadURL,
		dbHost:      dbHost,
		now:         time.Now,
	}
}

// Staging is a site being assembled before publication.
type Staging struct {
	Domain string
	Dir    string
}

// SitePath returns the live directory of domain.
func (i *Installer) SitePath(domain string) (string, error) {
	if !platform.ValidDomain(domain) {
		return "", fault.Validation("invalid domain %q", domain)
	}
	path := filepath.Join(i.sitesDir, domain)
	if !i.isValidSitePath(path) {
		return "", fault.Validation("invalid site path for %q", domain)
	}
	return path, nil
}

// isValidSitePath checks that path is a direct child of the sites root.
func (i *Installer) isValidSitePath(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absRoot, err := filepath.Abs(i.sitesDir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || strings.Contains(rel, "..") {
		return false
	}
	return !strings.Contains(rel, string(filepath.Separator))
}

// Exists reports whether the live directory of domain exists.
func (i *Installer) Exists(domain string) bool {
	path, err := i.SitePath(domain)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Stage checks that domain has no live directory and creates an empty
// staging directory for it.
func (i *Installer) Stage(_ context.Context, domain string) (*Staging, error) {
	live, err := i.SitePath(domain)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(live); err == nil {
		return nil, fault.Conflict("site already exists")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fault.Wrap(fault.KindFilesystem, err, "stat %s", live)
	}

	if err := os.MkdirAll(i.sitesDir, dirMode); err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "create sites directory")
	}
	dir, err := os.MkdirTemp(i.sitesDir, ".staging-"+domain+"-")
	if err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "create staging directory")
	}
	return &Staging{Domain: domain, Dir: dir}, nil
}

// Download fetches the release archive and materializes it into the
// staging directory.
func (i *Installer) Download(ctx context.Context, st *Staging) error {
	pkg, err := i.fetcher.Fetch(ctx, i.downloadURL, i.sitesDir)
	if err != nil {
		return err
	}
	return Materialize(pkg, st.Dir)
}

// Configure writes wp-config.php into the staging directory.
func (i *Installer) Configure(st *Staging, creds Credentials) error {
	if creds.Host == "" {
		creds.Host = i.dbHost
	}
	_, err := WriteConfig(filepath.Join(st.Dir, TemplateFile), creds)
	return err
}

// Secure applies the standard permission layout to the staging directory.
func (i *Installer) Secure(st *Staging) error {
	return SetPermissions(st.Dir)
}

// Publish renames the staging directory to the live site path.
func (i *Installer) Publish(st *Staging) error {
	live, err := i.SitePath(st.Domain)
	if err != nil {
		return err
	}
	if _, err := os.Stat(live); err == nil {
		return fault.Conflict("site already exists")
	}
	if err := os.Rename(st.Dir, live); err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "publish site")
	}
	i.logger.Info().Str("domain", st.Domain).Str("path", live).Msg("site published")
	return nil
}

// Discard removes the staging directory.
func (i *Installer) Discard(st *Staging) error {
	if err := os.RemoveAll(st.Dir); err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "discard staging directory")
	}
	return nil
}

// Remove deletes the live directory of domain. A missing directory is not
// an error.
func (i *Installer) Remove(domain string) error {
	live, err := i.SitePath(domain)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(live); err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "remove site files")
	}
	i.logger.Info().Str("domain", domain).Msg("site files removed")
	return nil
}

// DiskUsage returns the number of bytes used by the site's files.
func (i *Installer) DiskUsage(domain string) (int64, error) {
	live, err := i.SitePath(domain)
	if err != nil {
		return 0, err
	}
	st, err := archive.Stat(live)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fault.Wrap(fault.KindFilesystem, err, "measure %s", live)
	}
	return st.Bytes, nil
}

var versionRe = regexp.MustCompile(`\$wp_version\s*=\s*'([^']+)'`)

// Version reads the WordPress version from a site tree. It returns
// "latest" when the version file is missing or unreadable.
func Version(siteDir string) string {
	data, err := os.ReadFile(filepath.Join(siteDir, "wp-includes", "version.php"))
	if err != nil {
		return "latest"
	}
	m := versionRe.FindSubmatch(data)
	if m == nil {
		return "latest"
	}
	return string(m[1])
}

// InstalledVersion returns the WordPress version of the live site.
func (i *Installer) InstalledVersion(domain string) string {
	live, err := i.SitePath(domain)
	if err != nil {
		return "latest"
	}
	return Version(live)
}
