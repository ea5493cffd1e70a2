package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, "active", StatusActive)
	assert.Equal(t, "suspended", StatusSuspended)
	assert.Equal(t, "maintenance", StatusMaintenance)
	assert.Equal(t, "success", BackupStatusSuccess)
	assert.Equal(t, "failed", BackupStatusFailed)
	assert.Equal(t, "clean", ScanStatusClean)
	assert.Equal(t, "suspicious", ScanStatusSuspicious)
	assert.Equal(t, "infected", ScanStatusInfected)
}

func TestValidSiteStatus(t *testing.T) {
	assert.True(t, ValidSiteStatus("active"))
	assert.True(t, ValidSiteStatus("suspended"))
	assert.True(t, ValidSiteStatus("maintenance"))
	assert.False(t, ValidSiteStatus("deleted"))
	assert.False(t, ValidSiteStatus(""))
}
