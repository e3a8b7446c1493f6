package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/scanner"
)

// ScanTrigger runs one scan immediately. Satisfied by scheduler.Scheduler.
type ScanTrigger interface {
	TriggerNow(ctx context.Context, provider models.Provider, accountID int) scanner.ScanResult
}

// ScanHandler serves on-demand scan triggering.
type ScanHandler struct {
	Scheduler ScanTrigger
}

// Trigger starts a scan for one account right now, bypassing its schedule.
// The attempt is recorded in the execution log; next_run_at is untouched.
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	provider, id, ok := accountParams(w, r)
	if !ok {
		return
	}

	result := h.Scheduler.TriggerNow(r.Context(), provider, id)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
		if result.Error == "account not found" {
			status = http.StatusNotFound
		}
	}

	out := map[string]interface{}{"success": result.Success}
	if result.AuditID > 0 {
		out["audit_id"] = result.AuditID
	}
	if result.Error != "" {
		out["error"] = result.Error
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(out)
}
