package wordpress

import (
	"errors"
	"io/fs"
	"os"

	"github.com/edvin/wppanel/internal/archive"
	"github.com/edvin/wppanel/internal/fault"
)

// Materialize extracts the release archive into targetDir, lifts a single
// nested top-level directory (the "wordpress/" folder of official releases)
// into targetDir, and deletes the archive. targetDir must be absent or
// empty. On failure nothing extracted is left behind.
func Materialize(archivePath, targetDir string) (err error) {
	defer os.Remove(archivePath)

	entries, rerr := os.ReadDir(targetDir)
	switch {
	case rerr == nil && len(entries) > 0:
		return fault.Conflict("site already exists")
	case rerr != nil && !errors.Is(rerr, fs.ErrNotExist):
		return fault.Wrap(fault.KindFilesystem, rerr, "read %s", targetDir)
	}

	defer func() {
		if err != nil {
			os.RemoveAll(targetDir)
		}
	}()

	if err := archive.ExtractZip(archivePath, targetDir); err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "extract archive")
	}
	if err := archive.Flatten(targetDir); err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "flatten archive root")
	}
	return nil
}
