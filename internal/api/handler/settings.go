package handler

import (
	"net/http"

	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
)

type Settings struct {
	svc *core.SettingsService
}

func NewSettings(svc *core.SettingsService) *Settings {
	return &Settings{svc: svc}
}

func (h *Settings) Get(w http.ResponseWriter, r *http.Request) {
	values, err := h.svc.GetAll(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, values)
}

// Update godoc
//
//	@Summary		Update admin settings
//	@Description	Accepts a partial map of setting keys to string values.
//	@Tags			Settings
//	@Security		BearerAuth
//	@Accept			json
//	@Param			body	body		map[string]string	true	"Settings"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	response.ErrorResponse
//	@Router			/settings [put]
func (h *Settings) Update(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := request.DecodeJSON(r, &values); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.svc.Update(r.Context(), values)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, updated)
}
