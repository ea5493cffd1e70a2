package handler

import (
	"fmt"
	"net/http"

	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
)

type SSL struct {
	svc *core.SSLService
}

func NewSSL(svc *core.SSLService) *SSL {
	return &SSL{svc: svc}
}

// Enable godoc
//
//	@Summary		Issue a certificate for a site
//	@Tags			SSL
//	@Security		BearerAuth
//	@Param			siteID	path		string	true	"Site ID"
//	@Success		200		{object}	response.Message
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		500		{object}	response.ErrorResponse
//	@Router			/ssl/{siteID}/enable [post]
func (h *SSL) Enable(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	site, err := h.svc.Enable(r.Context(), siteID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, fmt.Sprintf("SSL enabled for %s", site.Domain))
}

func (h *SSL) Disable(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	site, err := h.svc.Disable(r.Context(), siteID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, fmt.Sprintf("SSL disabled for %s", site.Domain))
}

func (h *SSL) Status(w http.ResponseWriter, r *http.Request) {
	siteID, ok := urlID(w, r, "siteID")
	if !ok {
		return
	}

	status, err := h.svc.Status(r.Context(), siteID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, status)
}

func (h *SSL) Renew(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Renew(r.Context()); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteMessage(w, http.StatusOK, "SSL certificates renewed successfully")
}

func (h *SSL) Certificates(w http.ResponseWriter, r *http.Request) {
	certs, err := h.svc.Certificates(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, certs)
}
