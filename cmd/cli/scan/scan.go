package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/crucial707/cloudscan/cmd/cli/config"
	"github.com/crucial707/cloudscan/cmd/cli/root"
	"github.com/spf13/cobra"
)

func init() {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Trigger a scan for one account right now",
		Long: `Trigger a security scan immediately, bypassing the account's schedule.
The attempt is recorded in the execution log.

Example:
  cloudscan scan --provider aws --id 1`,
		RunE: runScan,
	}

	scanCmd.Flags().String("provider", "", "Cloud provider: aws, gcp, or azure")
	scanCmd.Flags().Int("id", 0, "Account ID")
	scanCmd.Flags().BoolP("json", "j", false, "Output raw JSON instead of formatted text")
	scanCmd.MarkFlagRequired("provider")
	scanCmd.MarkFlagRequired("id")

	root.GetRoot().AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	provider, _ := cmd.Flags().GetString("provider")
	id, _ := cmd.Flags().GetInt("id")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first (cloudscan login --username ...)")
	}

	url := fmt.Sprintf("%s/v1/accounts/%s/%d/scan", config.APIURL(), provider, id)
	req, err := http.NewRequest("POST", url, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result struct {
		Success bool   `json:"success"`
		AuditID int    `json:"audit_id"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if jsonOutput {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if !result.Success {
		return fmt.Errorf("scan failed: %s", result.Error)
	}
	fmt.Printf("Scan triggered: audit_id=%d\n", result.AuditID)
	return nil
}
