package handler

import (
	"fmt"
	"net/http"

	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
)

type Site struct {
	svc *core.SiteService
}

func NewSite(svc *core.SiteService) *Site {
	return &Site{svc: svc}
}

// List godoc
//
//	@Summary		List sites
//	@Tags			Sites
//	@Security		BearerAuth
//	@Success		200	{array}		model.Site
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/sites [get]
func (h *Site) List(w http.ResponseWriter, r *http.Request) {
	sites, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, sites)
}

// Create godoc
//
//	@Summary		Create a WordPress site
//	@Description	Downloads WordPress, provisions a database and publishes the site. Nothing is left behind on failure.
//	@Tags			Sites
//	@Security		BearerAuth
//	@Accept			json
//	@Param			body	body		request.CreateSite	true	"Site"
//	@Success		201		{object}	model.Site
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/sites [post]
func (h *Site) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSite
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	site, err := h.svc.Create(r.Context(), req.Domain)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, site)
}

func (h *Site) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	site, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, site)
}

func (h *Site) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, "Site deleted successfully")
}

func (h *Site) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req request.SetSiteStatus
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	site, err := h.svc.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, fmt.Sprintf("Site %s status updated to %s", site.Domain, site.Status))
}

// Update replaces the site's WordPress core with the latest release.
func (h *Site) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	res, err := h.svc.Update(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, res)
}
