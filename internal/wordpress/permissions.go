package wordpress

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/edvin/wppanel/internal/fault"
)

const (
	dirMode    fs.FileMode = 0o755
	fileMode   fs.FileMode = 0o644
	configMode fs.FileMode = 0o600
)

// SetPermissions applies 0755 to every directory (including siteDir), 0644
// to every regular file, and then 0600 to wp-config.php. Symlinks are left
// alone.
func SetPermissions(siteDir string) error {
	err := filepath.WalkDir(siteDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.Chmod(path, dirMode)
		case d.Type().IsRegular():
			return os.Chmod(path, fileMode)
		}
		return nil
	})
	if err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "set permissions on %s", siteDir)
	}

	configPath := filepath.Join(siteDir, ConfigFile)
	if info, err := os.Lstat(configPath); err == nil && info.Mode().IsRegular() {
		if err := os.Chmod(configPath, configMode); err != nil {
			return fault.Wrap(fault.KindFilesystem, err, "protect %s", ConfigFile)
		}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fault.Wrap(fault.KindFilesystem, err, "stat %s", ConfigFile)
	}
	return nil
}
