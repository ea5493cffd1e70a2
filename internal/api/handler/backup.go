package handler

import (
	"fmt"
	"net/http"

	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/backup"
	"github.com/edvin/wppanel/internal/core"
	"github.com/edvin/wppanel/internal/model"
)

type Backup struct {
	svc *core.BackupService
}

func NewBackup(svc *core.BackupService) *Backup {
	return &Backup{svc: svc}
}

type backupFilesResponse struct {
	Backups []model.BackupArtifact `json:"backups"`
}

type cleanupResponse struct {
	Message string `json:"message"`
	*backup.CleanupResult
}

// Create godoc
//
//	@Summary		Back up a site
//	@Description	Archives the site files and dumps its database. The attempt is recorded either way.
//	@Tags			Backups
//	@Security		BearerAuth
//	@Param			siteID	path		string	true	"Site ID"
//	@Success		201		{object}	model.BackupRecord
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/backups/{siteID} [post]
func (h *Backup) Create(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	rec, err := h.svc.Create(r.Context(), siteID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Backup) ListFiles(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	files, err := h.svc.ListFiles(r.Context(), siteID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, backupFilesResponse{Backups: files})
}

func (h *Backup) ListRecords(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	records, err := h.svc.ListRecords(r.Context(), siteID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, records)
}

// Restore godoc
//
//	@Summary		Restore a site from a backup
//	@Tags			Backups
//	@Security		BearerAuth
//	@Param			siteID	path		string					true	"Site ID"
//	@Param			body	body		request.RestoreBackup	true	"Backup file"
//	@Success		200		{object}	response.Message
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/backups/{siteID}/restore [post]
func (h *Backup) Restore(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	var req request.RestoreBackup
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Restore(r.Context(), siteID, req.BackupFile); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, fmt.Sprintf("Backup %s restored successfully", req.BackupFile))
}

func (h *Backup) Delete(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}
	file, ok := urlID(w, r, "file")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), siteID, file); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, fmt.Sprintf("Backup %s deleted successfully", file))
}

// Cleanup removes backups older than the retention period.
func (h *Backup) Cleanup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Cleanup(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, cleanupResponse{
		Message:       fmt.Sprintf("Cleaned up %d old backup files", len(res.Removed)),
		CleanupResult: res,
	})
}
