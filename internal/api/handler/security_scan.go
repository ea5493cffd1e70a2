package handler

import (
	"net/http"

	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
	"github.com/edvin/wppanel/internal/model"
)

type SecurityScan struct {
	svc   *core.SecurityScanService
	sites *core.SiteService
}

func NewSecurityScan(svc *core.SecurityScanService, sites *core.SiteService) *SecurityScan {
	return &SecurityScan{svc: svc, sites: sites}
}

func (h *SecurityScan) List(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.sites.GetByID(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	scans, err := h.svc.ListBySite(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, scans)
}

// Create records a scan reported by an external scanner.
func (h *SecurityScan) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req request.CreateSecurityScan
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.sites.GetByID(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	scan := &model.SecurityScan{
		SiteID:   id,
		ScanType: req.ScanType,
		Findings: req.Findings,
		Status:   req.Status,
	}
	if err := h.svc.Create(r.Context(), scan); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, scan)
}
