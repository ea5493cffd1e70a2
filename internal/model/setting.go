package model

// Admin setting keys.
const (
	SettingAdminEmail          = "admin_email"
	SettingBackupRetentionDays = "backup_retention_days"
	SettingAutoBackup          = "auto_backup"
	SettingAutoSSL             = "auto_ssl"
	SettingSecurityLevel       = "security_level"
)

// Setting is one admin key/value pair.
type Setting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}
