package model

// Site status constants.
const (
	StatusActive      = "active"
	StatusSuspended   = "suspended"
	StatusMaintenance = "maintenance"
)

// Backup outcome constants.
const (
	BackupStatusSuccess = "success"
	BackupStatusFailed  = "failed"
)

// Security scan outcome constants.
const (
	ScanStatusClean      = "clean"
	ScanStatusSuspicious = "suspicious"
	ScanStatusInfected   = "infected"
)

// ValidSiteStatus reports whether s is a site status an operator may set.
func ValidSiteStatus(s string) bool {
	switch s {
	case StatusActive, StatusSuspended, StatusMaintenance:
		return true
	}
	return false
}
