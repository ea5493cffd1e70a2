// Package backup manages site backup archives on disk: naming, listing,
// deletion, retention cleanup and restoring site files from an archive.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/edvin/wppanel/internal/archive"
	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
)

const (
	zipExt       = ".zip"
	dumpSuffix   = "_db.sql"
	stampLayout  = "20060102_150405"
	dirMode      = 0o755
	artifactMode = 0o600
)

// Store lays out backups as <dir>/<domain>/<domain>_<timestamp>.zip with
// the database dump next to it as <domain>_<timestamp>_db.sql.
type Store struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates a Store rooted at dir.
func NewStore(logger zerolog.Logger, dir string) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "backup-store").Logger(),
		now:    time.Now,
	}
}

// Artifact is the pair of files written by one backup.
type Artifact struct {
	Name    string
	ZipPath string
	SQLPath string
}

// DumpName returns the database dump file name belonging to a zip.
func DumpName(zipName string) string {
	return strings.TrimSuffix(zipName, zipExt) + dumpSuffix
}

// ValidateFilename rejects names that are not a plain .zip file name.
func ValidateFilename(name string) error {
	if name == "" {
		return fault.Validation("backup file is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || filepath.Base(name) != name {
		return fault.Validation("invalid backup file %q", name)
	}
	if !strings.HasSuffix(name, zipExt) {
		return fault.Validation("backup file must be a .zip archive")
	}
	return nil
}

func (s *Store) domainDir(domain string) (string, error) {
	if !platform.ValidDomain(domain) {
		return "", fault.Validation("invalid domain %q", domain)
	}
	return filepath.Join(s.dir, domain), nil
}

// Next creates the domain backup directory and returns fresh artifact
// paths stamped with the current time.
func (s *Store) Next(domain string) (Artifact, error) {
	dir, err := s.domainDir(domain)
	if err != nil {
		return Artifact{}, err
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return Artifact{}, fault.Wrap(fault.KindFilesystem, err, "create backup directory")
	}
	name := domain + "_" + s.now().Format(stampLayout) + zipExt
	return Artifact{
		Name:    name,
		ZipPath: filepath.Join(dir, name),
		SQLPath: filepath.Join(dir, DumpName(name)),
	}, nil
}

// Open resolves an existing backup of domain by file name.
func (s *Store) Open(domain, name string) (Artifact, error) {
	if err := ValidateFilename(name); err != nil {
		return Artifact{}, err
	}
	dir, err := s.domainDir(domain)
	if err != nil {
		return Artifact{}, err
	}
	a := Artifact{
		Name:    name,
		ZipPath: filepath.Join(dir, name),
		SQLPath: filepath.Join(dir, DumpName(name)),
	}
	if _, err := os.Stat(a.ZipPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Artifact{}, fault.NotFound("backup file not found")
		}
		return Artifact{}, fault.Wrap(fault.KindFilesystem, err, "stat backup")
	}
	return a, nil
}

// Archive zips siteDir into the artifact's zip path and returns its size.
func (s *Store) Archive(siteDir string, a Artifact) (int64, error) {
	size, err := archive.ZipDir(siteDir, a.ZipPath)
	if err != nil {
		return 0, fault.Wrap(fault.KindFilesystem, err, "archive site files")
	}
	if err := os.Chmod(a.ZipPath, artifactMode); err != nil {
		return 0, fault.Wrap(fault.KindFilesystem, err, "chmod backup")
	}
	return size, nil
}

// Discard removes whatever files of a exist.
func (s *Store) Discard(a Artifact) {
	for _, p := range []string{a.ZipPath, a.SQLPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", p).Msg("failed to remove backup file")
		}
	}
}

// List returns the zip backups of domain, newest first.
func (s *Store) List(domain string) ([]model.BackupArtifact, error) {
	dir, err := s.domainDir(domain)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.BackupArtifact{}, nil
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindFilesystem, err, "read backup directory")
	}

	names := lo.SliceToMap(entries, func(e fs.DirEntry) (string, bool) {
		return e.Name(), true
	})
	artifacts := lo.FilterMap(entries, func(e fs.DirEntry, _ int) (model.BackupArtifact, bool) {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), zipExt) {
			return model.BackupArtifact{}, false
		}
		info, err := e.Info()
		if err != nil {
			return model.BackupArtifact{}, false
		}
		return model.BackupArtifact{
			Filename:    e.Name(),
			Size:        info.Size(),
			CreatedAt:   info.ModTime(),
			HasDatabase: names[DumpName(e.Name())],
		}, true
	})
	slices.SortFunc(artifacts, func(a, b model.BackupArtifact) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return artifacts, nil
}

// Delete removes a backup zip of domain and its database dump.
func (s *Store) Delete(domain, name string) error {
	a, err := s.Open(domain, name)
	if err != nil {
		return err
	}
	if err := os.Remove(a.ZipPath); err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "delete backup")
	}
	if err := os.Remove(a.SQLPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fault.Wrap(fault.KindFilesystem, err, "delete database dump")
	}
	s.logger.Info().Str("domain", domain).Str("file", name).Msg("backup deleted")
	return nil
}

// CleanupResult summarizes a retention pass.
type CleanupResult struct {
	Removed    []string `json:"removed"`
	FreedBytes int64    `json:"freed_bytes"`
}

// Cleanup removes .zip and .sql files anywhere under the store whose age
// is strictly greater than retention.
func (s *Store) Cleanup(retention time.Duration) (*CleanupResult, error) {
	res := &CleanupResult{Removed: []string{}}
	cutoff := s.now().Add(-retention)

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == s.dir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != zipExt && ext != ".sql" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		rel, _ := filepath.Rel(s.dir, path)
		res.Removed = append(res.Removed, filepath.ToSlash(rel))
		res.FreedBytes += info.Size()
		return nil
	})
	if err != nil {
		return res, fault.Wrap(fault.KindFilesystem, err, "backup cleanup")
	}

	s.logger.Info().Int("removed", len(res.Removed)).Int64("freed_bytes", res.FreedBytes).Msg("backup cleanup finished")
	return res, nil
}

// RestoreFiles replaces siteDir with the contents of the zip at zipPath.
// The archive is extracted into a sibling staging directory first and
// swapped in by rename, so a failed extraction leaves siteDir untouched.
func (s *Store) RestoreFiles(zipPath, siteDir string) error {
	parent, base := filepath.Dir(siteDir), filepath.Base(siteDir)
	staging, err := os.MkdirTemp(parent, ".restore-"+base+"-")
	if err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "create restore staging directory")
	}
	if err := archive.ExtractZip(zipPath, staging); err != nil {
		os.RemoveAll(staging)
		return fault.Wrap(fault.KindFilesystem, err, "extract backup")
	}
	if err := os.Chmod(staging, dirMode); err != nil {
		os.RemoveAll(staging)
		return fault.Wrap(fault.KindFilesystem, err, "chmod restore staging directory")
	}

	old := filepath.Join(parent, fmt.Sprintf(".replaced-%s-%s", base, s.now().Format(stampLayout)))
	hadLive := true
	if err := os.Rename(siteDir, old); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			os.RemoveAll(staging)
			return fault.Wrap(fault.KindFilesystem, err, "move current site aside")
		}
		hadLive = false
	}
	if err := os.Rename(staging, siteDir); err != nil {
		if hadLive {
			os.Rename(old, siteDir)
		}
		os.RemoveAll(staging)
		return fault.Wrap(fault.KindFilesystem, err, "swap restored site into place")
	}
	if hadLive {
		if err := os.RemoveAll(old); err != nil {
			s.logger.Warn().Err(err).Str("path", old).Msg("failed to remove replaced site files")
		}
	}
	return nil
}
