package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/backup"
	"github.com/edvin/wppanel/internal/metrics"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
)

const backupRecordColumns = `id, site_id, backup_file, backup_size, status, created_at`

type BackupService struct {
	db               DB
	logger           zerolog.Logger
	sites            *SiteService
	files            SiteFiles
	store            *backup.Store
	dumper           DatabaseDumper
	uploader         OffsiteUploader
	settings         *SettingsService
	locks            *domainLocks
	defaultRetention int
}

func NewBackupService(db DB, logger zerolog.Logger, sites *SiteService, files SiteFiles, store *backup.Store,
	dumper DatabaseDumper, uploader OffsiteUploader, settings *SettingsService, locks *domainLocks, defaultRetention int) *BackupService {
	return &BackupService{
		db:               db,
		logger:           logger.With().Str("component", "backup-service").Logger(),
		sites:            sites,
		files:            files,
		store:            store,
		dumper:           dumper,
		uploader:         uploader,
		settings:         settings,
		locks:            locks,
		defaultRetention: defaultRetention,
	}
}

// Create archives the site files, dumps its database and records the
// attempt. A record is written whether the backup succeeds or fails.
func (s *BackupService) Create(ctx context.Context, siteID string) (rec *model.BackupRecord, err error) {
	defer metrics.ObserveWorkflow("backup_create", time.Now(), &err)

	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(site.Domain)
	defer unlock()

	rec = &model.BackupRecord{
		ID:        platform.NewID(),
		SiteID:    site.ID,
		Status:    model.BackupStatusFailed,
		CreatedAt: time.Now(),
	}

	artifact, size, backupErr := s.write(ctx, site)
	if backupErr == nil {
		rec.Status = model.BackupStatusSuccess
		rec.BackupFile = artifact.Name
		rec.BackupSize = size
	}

	if err := s.insertRecord(ctx, rec); err != nil {
		if backupErr != nil {
			return nil, fmt.Errorf("%w (record: %v)", backupErr, err)
		}
		return nil, err
	}
	if backupErr != nil {
		s.logger.Error().Err(backupErr).Str("domain", site.Domain).Msg("backup failed")
		return nil, backupErr
	}

	s.logger.Info().Str("domain", site.Domain).Str("file", rec.BackupFile).Int64("size", size).Msg("backup created")
	s.copyOffsite(ctx, site.Domain, artifact)
	return rec, nil
}

func (s *BackupService) write(ctx context.Context, site *model.Site) (backup.Artifact, int64, error) {
	siteDir, err := s.files.SitePath(site.Domain)
	if err != nil {
		return backup.Artifact{}, 0, err
	}
	artifact, err := s.store.Next(site.Domain)
	if err != nil {
		return backup.Artifact{}, 0, err
	}
	size, err := s.store.Archive(siteDir, artifact)
	if err != nil {
		s.store.Discard(artifact)
		return backup.Artifact{}, 0, err
	}
	if err := s.dumper.Dump(ctx, site.DBName, artifact.SQLPath); err != nil {
		s.store.Discard(artifact)
		return backup.Artifact{}, 0, err
	}
	return artifact, size, nil
}

func (s *BackupService) copyOffsite(ctx context.Context, domain string, a backup.Artifact) {
	if s.uploader == nil {
		return
	}
	if err := s.uploader.Upload(ctx, domain, a.ZipPath, a.SQLPath); err != nil {
		s.logger.Warn().Err(err).Str("domain", domain).Str("file", a.Name).Msg("offsite copy failed")
	}
}

func (s *BackupService) insertRecord(ctx context.Context, rec *model.BackupRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO backup_records (`+backupRecordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.SiteID, rec.BackupFile, rec.BackupSize, rec.Status, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert backup record: %w", err)
	}
	return nil
}

// ListFiles returns the backup archives present on disk for a site.
func (s *BackupService) ListFiles(ctx context.Context, siteID string) ([]model.BackupArtifact, error) {
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return s.store.List(site.Domain)
}

// ListRecords returns the recorded backup attempts of a site, newest first.
func (s *BackupService) ListRecords(ctx context.Context, siteID string) ([]model.BackupRecord, error) {
	if _, err := s.sites.GetByID(ctx, siteID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+backupRecordColumns+` FROM backup_records
		 WHERE site_id = $1 ORDER BY created_at DESC`, siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list backup records: %w", err)
	}
	defer rows.Close()

	records := []model.BackupRecord{}
	for rows.Next() {
		var r model.BackupRecord
		if err := rows.Scan(&r.ID, &r.SiteID, &r.BackupFile, &r.BackupSize, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backup records: %w", err)
	}
	return records, nil
}

// Restore replaces the site's files and database with a backup. The site
// is put in maintenance for the duration and set active afterwards, even
// when the restore fails or the caller cancels.
func (s *BackupService) Restore(ctx context.Context, siteID, file string) (err error) {
	defer metrics.ObserveWorkflow("backup_restore", time.Now(), &err)

	if err := backup.ValidateFilename(file); err != nil {
		return err
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(site.Domain)
	defer unlock()

	artifact, err := s.store.Open(site.Domain, file)
	if err != nil {
		return err
	}
	siteDir, err := s.files.SitePath(site.Domain)
	if err != nil {
		return err
	}

	if _, err := s.sites.SetStatus(ctx, site.ID, model.StatusMaintenance); err != nil {
		return err
	}
	// The site goes back to active whether or not the restore succeeded.
	defer func() {
		if _, serr := s.sites.SetStatus(context.WithoutCancel(ctx), site.ID, model.StatusActive); serr != nil {
			s.logger.Error().Err(serr).Str("domain", site.Domain).Msg("failed to reset site status after restore")
		}
	}()

	s.logger.Info().Str("domain", site.Domain).Str("file", file).Msg("restoring backup")
	if err := s.store.RestoreFiles(artifact.ZipPath, siteDir); err != nil {
		return err
	}
	if _, err := os.Stat(artifact.SQLPath); err == nil {
		if err := s.dumper.Restore(ctx, site.DBName, artifact.SQLPath); err != nil {
			return err
		}
	}

	s.logger.Info().Str("domain", site.Domain).Str("file", file).Msg("backup restored")
	return nil
}

// Delete removes a backup archive of a site and its database dump.
func (s *BackupService) Delete(ctx context.Context, siteID, file string) error {
	if err := backup.ValidateFilename(file); err != nil {
		return err
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return err
	}
	return s.store.Delete(site.Domain, file)
}

// Retention returns the configured backup retention in days.
func (s *BackupService) Retention(ctx context.Context) int {
	days, err := s.settings.Int(ctx, model.SettingBackupRetentionDays, s.defaultRetention)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read retention setting, using default")
		return s.defaultRetention
	}
	if days < 1 {
		return s.defaultRetention
	}
	return days
}

// Cleanup removes backup files older than the retention period.
func (s *BackupService) Cleanup(ctx context.Context) (*backup.CleanupResult, error) {
	days := s.Retention(ctx)
	return s.store.Cleanup(time.Duration(days) * 24 * time.Hour)
}

// BackupAll backs up every active site when the auto_backup setting is
// on. It returns the number of successful backups.
func (s *BackupService) BackupAll(ctx context.Context) (int, error) {
	enabled, err := s.settings.Bool(ctx, model.SettingAutoBackup)
	if err != nil {
		return 0, err
	}
	if !enabled {
		s.logger.Debug().Msg("automatic backups disabled")
		return 0, nil
	}

	sites, err := s.sites.ListByStatus(ctx, model.StatusActive)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, site := range sites {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if _, err := s.Create(ctx, site.ID); err != nil {
			s.logger.Warn().Err(err).Str("domain", site.Domain).Msg("automatic backup failed")
			continue
		}
		done++
	}
	return done, nil
}
