package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/repo"
)

// SettingsHandler serves the authenticated user's notification settings.
type SettingsHandler struct {
	Repo *repo.SettingsRepo
}

// Get returns the user's notification settings. Users who never configured
// anything get the defaults: every channel disabled, critical-only gates.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	settings, err := h.Repo.GetByUserID(r.Context(), uid)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if settings == nil {
		settings = defaultSettings(uid)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

// Put replaces the user's notification settings.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var input models.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	input.UserID = userID(r)

	fields := map[string]string{}
	if input.Webhook.Enabled && input.Webhook.Destination == "" {
		fields["webhook.destination"] = "is required when the channel is enabled"
	}
	if input.Slack.Enabled && input.Slack.Destination == "" {
		fields["slack.destination"] = "is required when the channel is enabled"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if err := h.Repo.Upsert(r.Context(), input); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(input)
}

func defaultSettings(uid int) *models.NotificationSettings {
	ch := models.ChannelSettings{AlertOnCritical: true}
	return &models.NotificationSettings{UserID: uid, Webhook: ch, Slack: ch, Email: ch}
}
