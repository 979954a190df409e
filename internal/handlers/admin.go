package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	"github.com/abrezinsky/everyonevotes/internal/models"
)

func officerFrom(r *http.Request) (*models.Officer, error) {
	officer, ok := auth.OfficerFromContext(r.Context())
	if !ok {
		return nil, Unauthorized("Officer token required")
	}
	return officer, nil
}

// handleDashboard returns statistics scoped to the officer's constituency
func (h *Handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	officer, err := officerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	stats, err := h.Officers.Dashboard(r.Context(), officer)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, DashboardResponse{Officer: officer, Statistics: stats})
}

// handleStatistics returns statistics for ?constituency=, defaulting to the
// officer's scope. Only officers covering every constituency may pick another one.
func (h *Handlers) handleStatistics(w http.ResponseWriter, r *http.Request) {
	officer, err := officerFrom(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	scope := strings.TrimSpace(r.URL.Query().Get("constituency"))
	switch {
	case scope == "":
		scope = officer.Constituency
	case !officer.CoversAll() && scope != officer.Constituency:
		h.respondError(w, r, Forbidden("Officer may only view their own constituency"))
		return
	}

	stats, err := h.Statistics.GetScopedStatistics(r.Context(), scope)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, stats)
}
