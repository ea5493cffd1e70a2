package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edvin/wppanel/internal/sysstats"
)

// StatusCount holds a count grouped by status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// SiteStats summarizes the hosted sites.
type SiteStats struct {
	Total          int           `json:"total"`
	Active         int           `json:"active"`
	SSLEnabled     int           `json:"ssl_enabled"`
	ByStatus       []StatusCount `json:"by_status"`
	DiskUsageBytes int64         `json:"disk_usage_bytes"`
}

// BackupStats summarizes the recorded backup attempts.
type BackupStats struct {
	Total      int   `json:"total"`
	Successful int   `json:"successful"`
	Failed     int   `json:"failed"`
	TotalSize  int64 `json:"total_size"`
	Last7Days  int   `json:"last_7_days"`
}

// SecurityStats summarizes the recorded security scans.
type SecurityStats struct {
	Total       int `json:"total"`
	Clean       int `json:"clean"`
	Suspicious  int `json:"suspicious"`
	Infected    int `json:"infected"`
	Last24Hours int `json:"last_24_hours"`
}

// Overview combines every statistic with the time it was gathered.
type Overview struct {
	System    *sysstats.System `json:"system"`
	Sites     *SiteStats       `json:"sites"`
	Backups   *BackupStats     `json:"backups"`
	Security  *SecurityStats   `json:"security"`
	Timestamp string           `json:"timestamp"`
}

// StatsService reports host and panel statistics.
type StatsService struct {
	db     DB
	files  SiteFiles
	system SystemCollector
	now    func() time.Time
}

func NewStatsService(db DB, files SiteFiles, system SystemCollector) *StatsService {
	return &StatsService{db: db, files: files, system: system, now: time.Now}
}

func (s *StatsService) System(ctx context.Context) (*sysstats.System, error) {
	return s.system.Collect(ctx)
}

func (s *StatsService) Sites(ctx context.Context) (*SiteStats, error) {
	stats := &SiteStats{ByStatus: []StatusCount{}}
	err := s.db.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'active'),
		        count(*) FILTER (WHERE ssl_enabled)
		 FROM sites`,
	).Scan(&stats.Total, &stats.Active, &stats.SSLEnabled)
	if err != nil {
		return nil, fmt.Errorf("site counts: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT status, count(*) FROM sites GROUP BY status ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("sites by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus = append(stats.ByStatus, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}

	domains, err := s.domains(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		n, err := s.files.DiskUsage(d)
		if err != nil {
			return nil, err
		}
		stats.DiskUsageBytes += n
	}
	return stats, nil
}

func (s *StatsService) domains(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "SELECT domain FROM sites ORDER BY domain")
	if err != nil {
		return nil, fmt.Errorf("list site domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan site domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site domains: %w", err)
	}
	return domains, nil
}

func (s *StatsService) Backups(ctx context.Context) (*BackupStats, error) {
	stats := &BackupStats{}
	err := s.db.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'success'),
		        count(*) FILTER (WHERE status = 'failed'),
		        coalesce(sum(backup_size), 0),
		        count(*) FILTER (WHERE created_at >= $1)
		 FROM backup_records`,
		s.now().Add(-7*24*time.Hour),
	).Scan(&stats.Total, &stats.Successful, &stats.Failed, &stats.TotalSize, &stats.Last7Days)
	if err != nil {
		return nil, fmt.Errorf("backup counts: %w", err)
	}
	return stats, nil
}

func (s *StatsService) Security(ctx context.Context) (*SecurityStats, error) {
	stats := &SecurityStats{}
	err := s.db.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'clean'),
		        count(*) FILTER (WHERE status = 'suspicious'),
		        count(*) FILTER (WHERE status = 'infected'),
		        count(*) FILTER (WHERE created_at >= $1)
		 FROM security_scans`,
		s.now().Add(-24*time.Hour),
	).Scan(&stats.Total, &stats.Clean, &stats.Suspicious, &stats.Infected, &stats.Last24Hours)
	if err != nil {
		return nil, fmt.Errorf("security counts: %w", err)
	}
	return stats, nil
}

// Overview gathers all statistics concurrently.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	ov := &Overview{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.System, err = s.System(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Sites, err = s.Sites(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Backups, err = s.Backups(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.Security, err = s.Security(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ov.Timestamp = s.now().UTC().Format(time.RFC3339)
	return ov, nil
}
