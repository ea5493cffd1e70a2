package model

import "time"

// BackupRecord logs one backup attempt. Records are never updated.
type BackupRecord struct {
	ID         string    `json:"id" db:"id"`
	SiteID     string    `json:"site_id" db:"site_id"`
	BackupFile string    `json:"backup_file" db:"backup_file"`
	BackupSize int64     `json:"backup_size" db:"backup_size"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// BackupArtifact is a backup archive present on disk.
type BackupArtifact struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	HasDatabase bool      `json:"has_database"`
}
