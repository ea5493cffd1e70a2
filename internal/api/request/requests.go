package request

type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateSite struct {
	Domain string `json:"domain" validate:"required,domain"`
}

type SetSiteStatus struct {
	Status string `json:"status" validate:"required,oneof=active suspended maintenance"`
}

type RestoreBackup struct {
	BackupFile string `json:"backup_file" validate:"required"`
}

type CreateSecurityScan struct {
	ScanType string `json:"scan_type" validate:"required,max=64"`
	Findings string `json:"findings"`
	Status   string `json:"status" validate:"required,oneof=clean suspicious infected"`
}
