package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/api/response"
)

// urlID reads a required URL parameter. It writes a 400 and returns false
// when the parameter is empty.
func urlID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, err := request.RequireID(chi.URLParam(r, name))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
