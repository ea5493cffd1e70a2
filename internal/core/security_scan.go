package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/model"
	"github.com/edvin/wppanel/internal/platform"
)

type SecurityScanService struct {
	db DB
}

func NewSecurityScanService(db DB) *SecurityScanService {
	return &SecurityScanService{db: db}
}

func validScanStatus(s string) bool {
	switch s {
	case model.ScanStatusClean, model.ScanStatusSuspicious, model.ScanStatusInfected:
		return true
	}
	return false
}

// Create records the result of a scan run by an external scanner.
func (s *SecurityScanService) Create(ctx context.Context, scan *model.SecurityScan) error {
	if !validScanStatus(scan.Status) {
		return fault.Validation("invalid scan status %q", scan.Status)
	}
	if scan.ID == "" {
		scan.ID = platform.NewID()
	}
	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO security_scans (id, site_id, scan_type, findings, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		scan.ID, scan.SiteID, scan.ScanType, scan.Findings, scan.Status, scan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create security scan: %w", err)
	}
	return nil
}

// ListBySite returns the scans of a site, newest first.
func (s *SecurityScanService) ListBySite(ctx context.Context, siteID string) ([]model.SecurityScan, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, site_id, scan_type, findings, status, created_at
		 FROM security_scans WHERE site_id = $1 ORDER BY created_at DESC`, siteID,
	)
	if err != nil {
		return nil, fmt.Errorf("list security scans: %w", err)
	}
	defer rows.Close()

	scans := []model.SecurityScan{}
	for rows.Next() {
		var sc model.SecurityScan
		if err := rows.Scan(&sc.ID, &sc.SiteID, &sc.ScanType, &sc.Findings, &sc.Status, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan security scan: %w", err)
		}
		scans = append(scans, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security scans: %w", err)
	}
	return scans, nil
}
