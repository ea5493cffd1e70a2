package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/model"
)

func TestBackupCreate_SiteNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(noRows())

	rec := httptest.NewRecorder()
	h.Create(rec, withChiURLParams(newRequest(http.MethodPost, "/api/backups/"+validID, nil), map[string]string{"siteID": validID}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env.db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackupListFiles_Empty(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(siteRow(testSite(model.StatusActive, false)))

	rec := httptest.NewRecorder()
	h.ListFiles(rec, withChiURLParams(newRequest(http.MethodGet, "/api/backups/"+validID, nil), map[string]string{"siteID": validID}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"backups":[]}`, rec.Body.String())
}

func TestBackupRestore_InvalidFilename(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/api/backups/"+validID+"/restore", request.RestoreBackup{BackupFile: "../secrets.zip"})
	h.Restore(rec, withChiURLParams(r, map[string]string{"siteID": validID}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeErrorResponse(rec)["code"])
	env.db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackupRestore_MissingBody(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/api/backups/"+validID+"/restore", map[string]string{})
	h.Restore(rec, withChiURLParams(r, map[string]string{"siteID": validID}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackupRestore_FileNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(siteRow(testSite(model.StatusActive, false)))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/api/backups/"+validID+"/restore", request.RestoreBackup{BackupFile: "example.com_20240101_000000.zip"})
	h.Restore(rec, withChiURLParams(r, map[string]string{"siteID": validID}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "backup file not found", decodeErrorResponse(rec)["error"])
}

func TestBackupDelete_NotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{validID}).Return(siteRow(testSite(model.StatusActive, false)))

	rec := httptest.NewRecorder()
	r := newRequest(http.MethodDelete, "/api/backups/"+validID+"/example.com_20240101_000000.zip", nil)
	h.Delete(rec, withChiURLParams(r, map[string]string{"siteID": validID, "file": "example.com_20240101_000000.zip"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackupCleanup_NothingToRemove(t *testing.T) {
	env := newTestEnv(t)
	h := NewBackup(env.svcs.Backup)
	env.db.On("QueryRow", mock.Anything, mock.Anything, []any{model.SettingBackupRetentionDays}).Return(noRows())

	rec := httptest.NewRecorder()
	h.Cleanup(rec, newRequest(http.MethodPost, "/api/backups/cleanup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Cleaned up 0 old backup files", body["message"])
	assert.Equal(t, []any{}, body["removed"])
}
