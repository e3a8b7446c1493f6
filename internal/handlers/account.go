package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/cloudscan/internal/models"
	"github.com/crucial707/cloudscan/internal/repo"
	"github.com/crucial707/cloudscan/internal/schedule"
)

// AccountHandler serves cloud account CRUD and schedule configuration.
type AccountHandler struct {
	Repo *repo.AccountRepo
}

// accountParams pulls provider and id out of the route. Responds with 400 and
// returns ok=false when either is malformed.
func accountParams(w http.ResponseWriter, r *http.Request) (models.Provider, int, bool) {
	provider := models.Provider(chi.URLParam(r, "provider"))
	if !provider.Valid() {
		JSONError(w, "invalid provider", http.StatusBadRequest)
		return "", 0, false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		JSONError(w, "invalid account id", http.StatusBadRequest)
		return "", 0, false
	}
	return provider, id, true
}

// List returns accounts across all providers. Query: limit (default 50), offset (default 0).
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
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

	accounts, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []models.CloudAccount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accounts": accounts,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get returns one account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	provider, id, ok := accountParams(w, r)
	if !ok {
		return
	}

	account, err := h.Repo.GetByID(r.Context(), provider, id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if account == nil {
		JSONError(w, "account not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// Create registers a cloud account for the authenticated user. When a schedule
// is supplied and enabled, the first run time is computed immediately.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Provider   models.Provider      `json:"provider"`
		Name       string               `json:"name"`
		ExternalID string               `json:"external_id"`
		Schedule   *models.ScheduleSpec `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	fields := map[string]string{}
	if !input.Provider.Valid() {
		fields["provider"] = "must be one of: aws, gcp, azure"
	}
	if input.Name == "" {
		fields["name"] = "is required"
	}
	if input.ExternalID == "" {
		fields["external_id"] = "is required"
	}

	account := models.CloudAccount{
		Provider:   input.Provider,
		UserID:     userID(r),
		Name:       input.Name,
		ExternalID: input.ExternalID,
		IsActive:   true,
		Schedule:   models.ScheduleSpec{Frequency: models.FrequencyDaily},
	}
	if input.Schedule != nil {
		for k, v := range validateSchedule(*input.Schedule) {
			fields["schedule."+k] = v
		}
		account.Schedule = *input.Schedule
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}
	account.Schedule.NextRunAt = nil
	if account.Schedule.Enabled {
		next := schedule.NextOccurrence(account.Schedule, time.Now().UTC())
		account.Schedule.NextRunAt = &next
	}

	created, err := h.Repo.Create(r.Context(), account)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// UpdateSchedule replaces an account's scan schedule and recomputes next_run_at.
func (h *AccountHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	provider, id, ok := accountParams(w, r)
	if !ok {
		return
	}

	var spec models.ScheduleSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if fields := validateSchedule(spec); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	account, err := h.Repo.GetByID(r.Context(), provider, id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if account == nil {
		JSONError(w, "account not found", http.StatusNotFound)
		return
	}

	spec.NextRunAt = nil
	if spec.Enabled {
		next := schedule.NextOccurrence(spec, time.Now().UTC())
		spec.NextRunAt = &next
	}

	if err := h.Repo.UpdateSchedule(r.Context(), provider, id, spec); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	account.Schedule = spec

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// Delete removes an account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	provider, id, ok := accountParams(w, r)
	if !ok {
		return
	}

	account, err := h.Repo.GetByID(r.Context(), provider, id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if account == nil {
		JSONError(w, "account not found", http.StatusNotFound)
		return
	}

	if err := h.Repo.Delete(r.Context(), provider, id); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateSchedule checks field ranges and that the frequency's day selector
// is present: weekly needs day_of_week, monthly needs day_of_month.
func validateSchedule(spec models.ScheduleSpec) map[string]string {
	fields := map[string]string{}

	switch spec.Frequency {
	case models.FrequencyDaily:
	case models.FrequencyWeekly:
		if spec.DayOfWeek == nil {
			fields["day_of_week"] = "is required for weekly schedules"
		} else if *spec.DayOfWeek < 0 || *spec.DayOfWeek > 6 {
			fields["day_of_week"] = "must be between 0 (Sunday) and 6"
		}
	case models.FrequencyMonthly:
		if spec.DayOfMonth == nil {
			fields["day_of_month"] = "is required for monthly schedules"
		} else if *spec.DayOfMonth < 1 || *spec.DayOfMonth > 31 {
			fields["day_of_month"] = "must be between 1 and 31"
		}
	default:
		fields["frequency"] = "must be one of: daily, weekly, monthly"
	}

	if spec.HourUTC < 0 || spec.HourUTC > 23 {
		fields["hour_utc"] = "must be between 0 and 23"
	}
	return fields
}
