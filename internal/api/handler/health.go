package handler

import (
	"net/http"

	"github.com/edvin/wppanel/internal/api/response"
)

// Health godoc
//
//	@Summary		Service health
//	@Tags			Health
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wppanel",
	})
}
