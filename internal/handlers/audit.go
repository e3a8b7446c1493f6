package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/cloudscan/internal/repo"
)

// AuditHandler serves audit lookups.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

// Get returns one audit with its severity summary.
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		JSONError(w, "invalid audit id", http.StatusBadRequest)
		return
	}

	audit, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if audit == nil {
		JSONError(w, "audit not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(audit)
}

// ListByAccount returns recent audits for one account, newest first.
// Query: limit (default 20, max 100).
func (h *AuditHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	provider, id, ok := accountParams(w, r)
	if !ok {
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}

	audits, err := h.Repo.ListByAccount(r.Context(), provider, id, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(audits)
}
