package wordpress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/edvin/wppanel/internal/archive"
	"github.com/edvin/wppanel/internal/fault"
)

// preserved entries are never replaced by an update. wp-content is left
// untouched as a whole; bundled themes and plugins from the new release are
// not merged into it.
var preserved = map[string]bool{
	ConfigFile:   true,
	"wp-content": true,
}

// UpdateResult describes a completed core update.
type UpdateResult struct {
	BackupPath string `json:"backup_path"`
	Version    string `json:"version"`
}

// Update replaces the WordPress core files of domain with the latest
// release. A full copy of the site is taken first; if that copy fails
// nothing is changed. wp-config.php and wp-content are kept.
func (i *Installer) Update(ctx context.Context, domain string) (*UpdateResult, error) {
	live, err := i.SitePath(domain)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(live)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fault.NotFound("site directory not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "stat %s", live)
	}

	backupPath := filepath.Join(i.sitesDir, fmt.Sprintf("%s_backup_%s", domain, i.now().Format("20060102_150405")))
	if err := archive.CopyTree(live, backupPath); err != nil {
		os.RemoveAll(backupPath)
		return nil, fault.Wrap(fault.KindFilesystem, err, "backup before update")
	}
	i.logger.Info().Str("domain", domain).Str("backup", backupPath).Msg("pre-update backup taken")

	tmp, err := os.MkdirTemp(i.sitesDir, ".update-"+domain+"-")
	if err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "create update directory")
	}
	defer os.RemoveAll(tmp)

	pkg, err := i.fetcher.Fetch(ctx, i.downloadURL, tmp)
	if err != nil {
		return nil, err
	}
	release := filepath.Join(tmp, "release")
	if err := archive.ExtractZip(pkg, release); err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "extract archive")
	}
	os.Remove(pkg)

	root, err := archive.FindRoot(release)
	if err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "read release")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "read release")
	}

	for _, e := range entries {
		if preserved[e.Name()] {
			continue
		}
		dst := filepath.Join(live, e.Name())
		if err := os.RemoveAll(dst); err != nil {
			return nil, fault.Wrap(fault.KindFilesystem, err, "replace %s", e.Name())
		}
		if err := os.Rename(filepath.Join(root, e.Name()), dst); err != nil {
			return nil, fault.Wrap(fault.KindFilesystem, err, "replace %s", e.Name())
		}
	}

	if err := SetPermissions(live); err != nil {
		return nil, err
	}

	version := Version(live)
	i.logger.Info().Str("domain", domain).Str("version", version).Msg("core files updated")
	return &UpdateResult{BackupPath: backupPath, Version: version}, nil
}
