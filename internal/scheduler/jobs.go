package scheduler

import (
	"context"

	"github.com/edvin/wppanel/internal/backup"
)

// Job names.
const (
	JobBackupRetention = "backup-retention"
	JobAutoBackup      = "auto-backup"
	JobSSLRenew        = "ssl-renew"
)

// Backups is the backup work the scheduler drives.
type Backups interface {
	Cleanup(ctx context.Context) (*backup.CleanupResult, error)
	BackupAll(ctx context.Context) (int, error)
}

// Certificates is the certificate work the scheduler drives.
type Certificates interface {
	RenewIfEnabled(ctx context.Context) (bool, error)
}

// Schedules holds the cron expression of each job.
type Schedules struct {
	BackupCleanup string
	Backup        string
	SSLRenew      string
}

// RegisterJobs adds the maintenance jobs to s.
func RegisterJobs(s *Scheduler, sched Schedules, backups Backups, certs Certificates) error {
	if _, err := s.Add(JobBackupRetention, sched.BackupCleanup, func(ctx context.Context) error {
		res, err := backups.Cleanup(ctx)
		if err != nil {
			return err
		}
		s.logger.Info().Int("removed", len(res.Removed)).Int64("freed_bytes", res.FreedBytes).Msg("old backups removed")
		return nil
	}); err != nil {
		return err
	}

	if _, err := s.Add(JobAutoBackup, sched.Backup, func(ctx context.Context) error {
		n, err := backups.BackupAll(ctx)
		if err != nil {
			return err
		}
		s.logger.Info().Int("sites", n).Msg("automatic backups done")
		return nil
	}); err != nil {
		return err
	}

	_, err := s.Add(JobSSLRenew, sched.SSLRenew, func(ctx context.Context) error {
		renewed, err := certs.RenewIfEnabled(ctx)
		if err != nil {
			return err
		}
		if !renewed {
			s.logger.Debug().Msg("no TLS sites, renewal skipped")
		}
		return nil
	})
	return err
}
