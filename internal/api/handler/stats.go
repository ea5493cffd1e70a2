package handler

import (
	"context"
	"net/http"

	"github.com/edvin/wppanel/internal/api/response"
	"github.com/edvin/wppanel/internal/core"
)

type Stats struct {
	svc *core.StatsService
}

func NewStats(svc *core.StatsService) *Stats {
	return &Stats{svc: svc}
}

func serveStats[T any](fn func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r.Context())
		if err != nil {
			response.WriteServiceError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, v)
	}
}

// System godoc
//
//	@Summary		Host CPU, memory, disk and network usage
//	@Tags			Stats
//	@Security		BearerAuth
//	@Success		200	{object}	sysstats.System
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/stats/system [get]
func (h *Stats) System(w http.ResponseWriter, r *http.Request) {
	serveStats(h.svc.System)(w, r)
}

func (h *Stats) Sites(w http.ResponseWriter, r *http.Request) {
	serveStats(h.svc.Sites)(w, r)
}

func (h *Stats) Backups(w http.ResponseWriter, r *http.Request) {
	serveStats(h.svc.Backups)(w, r)
}

func (h *Stats) Security(w http.ResponseWriter, r *http.Request) {
	serveStats(h.svc.Security)(w, r)
}

// Overview godoc
//
//	@Summary		All statistics in one response
//	@Tags			Stats
//	@Security		BearerAuth
//	@Success		200	{object}	core.Overview
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/stats/overview [get]
func (h *Stats) Overview(w http.ResponseWriter, r *http.Request) {
	serveStats(h.svc.Overview)(w, r)
}
