package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/edvin/wppanel/internal/api/middleware"
	"github.com/edvin/wppanel/internal/api/request"
	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
)

type Auth struct {
	svc *core.AuthService
}

func NewAuth(svc *core.AuthService) *Auth {
	return &Auth{svc: svc}
}

type meResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login authenticates the admin and returns a bearer token.
//
//	@Summary      Authenticate admin
//	@Tags         Authentication
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.Login  true  "Login credentials"
//	@Success      200   {object}  core.Token
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      401   {object}  response.ErrorResponse
//	@Router       /auth/login [post]
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req request.Login
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, core.ErrInvalidCredentials) {
		response.WriteError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, token)
}

// Logout revokes the caller's token.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Revoke(middleware.GetClaims(r.Context()))
	response.WriteMessage(w, http.StatusOK, "Successfully logged out")
}

func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing claims")
		return
	}
	me := meResponse{Username: claims.Subject}
	if claims.ExpiresAt != nil {
		me.ExpiresAt = claims.ExpiresAt.Time
	}
	response.WriteJSON(w, http.StatusOK, me)
}
