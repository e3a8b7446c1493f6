package scan

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
	"github.com/crucial707/cloudscan/cmd/cli/root"
	"github.com/crucial707/cloudscan/internal/models"
	"github.com/spf13/cobra"
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

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.GetRoot().Find([]string{name})
	if err != nil {
		t.Fatalf("find %s command: %v", name, err)
	}
	return cmd
}

func TestScan_Trigger(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "audit_id": 42})
	}))
	defer srv.Close()

	setupAuth(t, srv.URL)

	scanCmd := findCommand(t, "scan")
	_ = scanCmd.Flags().Set("provider", "aws")
	_ = scanCmd.Flags().Set("id", "1")

	out := captureOutput(t, func() {
		if err := scanCmd.RunE(scanCmd, []string{}); err != nil {
			t.Errorf("scan: %v", err)
		}
	})

	if gotPath != "/v1/accounts/aws/1/scan" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if !strings.Contains(out, "audit_id=42") {
		t.Errorf("expected audit id in output, got: %s", out)
	}
}

func TestScan_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "account not found"})
	}))
	defer srv.Close()

	setupAuth(t, srv.URL)

	scanCmd := findCommand(t, "scan")
	_ = scanCmd.Flags().Set("provider", "aws")
	_ = scanCmd.Flags().Set("id", "99")

	if err := scanCmd.RunE(scanCmd, []string{}); err == nil || !strings.Contains(err.Error(), "account not found") {
		t.Errorf("expected account not found error, got: %v", err)
	}
}

func TestScanLog_TableOutput(t *testing.T) {
	now := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	auditID := 11
	entries := []models.ScanLogEntry{
		{ID: 2, Provider: models.ProviderAWS, AccountID: 1, UserID: 1,
			ScheduledFor: now, ExecutedAt: now, Status: models.ScanLogStatusFailed, Error: "account not found"},
		{ID: 1, Provider: models.ProviderGCP, AccountID: 3, UserID: 1,
			ScheduledFor: now.Add(-time.Hour), ExecutedAt: now.Add(-time.Hour),
			Status: models.ScanLogStatusSuccess, AuditID: &auditID},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/scan-log" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"entries": entries, "total": 2})
	}))
	defer srv.Close()

	setupAuth(t, srv.URL)

	logCmd := findCommand(t, "scan-log")

	out := captureOutput(t, func() {
		if err := logCmd.RunE(logCmd, []string{}); err != nil {
			t.Errorf("scan-log: %v", err)
		}
	})

	if !strings.Contains(out, "account not found") || !strings.Contains(out, "success") {
		t.Fatalf("expected log rows in output, got: %s", out)
	}
	if !strings.Contains(out, "2 of 2 entries") {
		t.Fatalf("expected entry count in output, got: %s", out)
	}
}
