package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/repo"
)

// ScanLogHandler serves the scheduled scan execution log.
type ScanLogHandler struct {
	Repo *repo.ScanLogRepo
}

// List returns recent log entries, newest first. Query: limit (default 50,
// max 200), offset (default 0).
func (h *ScanLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.ScanLogEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
