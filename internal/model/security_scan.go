package model

import "time"

// SecurityScan is a scan result reported by an external scanner.
type SecurityScan struct {
	ID        string    `json:"id" db:"id"`
	SiteID    string    `json:"site_id" db:"site_id"`
	ScanType  string    `json:"scan_type" db:"scan_type"`
	Findings  string    `json:"findings" db:"findings"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
