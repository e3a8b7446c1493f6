package accounts

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/cloudscan/cmd/cli/config"
	"github.com/crucial707/cloudscan/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func setupAuth(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLOUDSCAN_API_URL", apiURL)
	if err := config.SaveToken("test-token"); err != nil {
		t.Fatalf("save token: %v", err)
	}
}

func testAccounts() []models.CloudAccount {
	next := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	return []models.CloudAccount{
		{
			ID: 1, Provider: models.ProviderAWS, UserID: 1,
			Name: "prod account", ExternalID: "123456789012", IsActive: true,
			Schedule: models.ScheduleSpec{Enabled: true, Frequency: models.FrequencyDaily, HourUTC: 3, NextRunAt: &next},
		},
		{
			ID: 2, Provider: models.ProviderGCP, UserID: 1,
			Name: "analytics project", ExternalID: "my-project-123", IsActive: true,
			Schedule: models.ScheduleSpec{Frequency: models.FrequencyDaily},
		},
	}
}

func TestListAccounts_TableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts": testAccounts(),
			"total":    2,
		})
	}))
	defer srv.Close()

	setupAuth(t, srv.URL)

	cmd := listAccountsCmd()
	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "prod account") || !strings.Contains(out, "analytics project") {
		t.Fatalf("expected account names in output, got: %s", out)
	}
	if !strings.Contains(out, "daily 03:00 UTC") || !strings.Contains(out, "disabled") {
		t.Fatalf("expected schedule summaries in output, got: %s", out)
	}
}

func TestListAccounts_JSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts": testAccounts()[:1],
			"total":    1,
		})
	}))
	defer srv.Close()

	setupAuth(t, srv.URL)

	cmd := listAccountsCmd()
	_ = cmd.Flags().Set("json", "true")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, `"name": "prod account"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestScheduleCmd_SendsSpec(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		next := time.Date(2026, 9, 2, 6, 0, 0, 0, time.UTC)
		_ = json.NewEncoder(w).Encode(models.CloudAccount{
			ID: 2, Provider: models.ProviderGCP, Name: "analytics project",
			Schedule: models.ScheduleSpec{Enabled: true, Frequency: models.FrequencyWeekly, HourUTC: 6, NextRunAt: &next},
		})
	}))
	defer srv.Close()

	setupAuth(t, srv.URL)

	cmd := scheduleCmd()
	_ = cmd.Flags().Set("provider", "gcp")
	_ = cmd.Flags().Set("id", "2")
	_ = cmd.Flags().Set("frequency", "weekly")
	_ = cmd.Flags().Set("hour", "6")
	_ = cmd.Flags().Set("day-of-week", "1")

	out := captureOutput(t, func() {
		if err := cmd.RunE(cmd, []string{}); err != nil {
			t.Errorf("schedule: %v", err)
		}
	})

	if gotPath != "/v1/accounts/gcp/2/schedule" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotBody["frequency"] != "weekly" || gotBody["enabled"] != true {
		t.Errorf("unexpected body: %v", gotBody)
	}
	if _, ok := gotBody["day_of_week"]; !ok {
		t.Errorf("day_of_week missing from body: %v", gotBody)
	}
	if _, ok := gotBody["day_of_month"]; ok {
		t.Errorf("day_of_month should not be sent: %v", gotBody)
	}
	if !strings.Contains(out, "next run") {
		t.Errorf("expected next run in output, got: %s", out)
	}
}

func TestListAccounts_RequiresLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out := captureOutput(t, func() {
		cmd := listAccountsCmd()
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "login") {
		t.Fatalf("expected login hint, got: %s", out)
	}
}
