package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crucial707/cloudscan/cmd/cli/config"
	"github.com/crucial707/cloudscan/cmd/cli/output"
	"github.com/crucial707/cloudscan/cmd/cli/root"
	"github.com/crucial707/cloudscan/internal/models"
	"github.com/spf13/cobra"
)

func init() {
	logCmd := &cobra.Command{
		Use:   "scan-log",
		Short: "Show the scheduled scan execution log",
		Long: `Show recent scan executions, newest first: what ran, when it was due,
whether it succeeded, and the audit it produced.

Example:
  cloudscan scan-log --limit 20`,
		RunE: runScanLog,
	}

	logCmd.Flags().Int("limit", 50, "Maximum number of entries")
	logCmd.Flags().BoolP("json", "j", false, "Output raw JSON instead of a table")

	root.GetRoot().AddCommand(logCmd)
}

func runScanLog(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first (cloudscan login --username ...)")
	}

	url := fmt.Sprintf("%s/v1/scan-log?limit=%d", config.APIURL(), limit)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Entries []models.ScanLogEntry `json:"entries"`
		Total   int                   `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if jsonOutput {
		b, _ := json.MarshalIndent(out.Entries, "", "  ")
		fmt.Println(string(b))
		return nil
	}

	rows := make([][]interface{}, 0, len(out.Entries))
	for _, e := range out.Entries {
		auditID := "-"
		if e.AuditID != nil {
			auditID = fmt.Sprint(*e.AuditID)
		}
		rows = append(rows, []interface{}{
			e.ID, e.Provider, e.AccountID,
			e.ScheduledFor.UTC().Format(time.RFC3339),
			e.ExecutedAt.UTC().Format(time.RFC3339),
			e.Status, auditID, e.Error,
		})
	}
	output.RenderTable(
		[]string{"ID", "Provider", "Account", "Scheduled For", "Executed At", "Status", "Audit", "Error"},
		rows,
	)
	fmt.Printf("%d of %d entries\n", len(out.Entries), out.Total)
	return nil
}
