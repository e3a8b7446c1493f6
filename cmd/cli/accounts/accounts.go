package accounts

import (
	"bytes"
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
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage cloud accounts and their scan schedules",
	}

	accountsCmd.AddCommand(
		listAccountsCmd(),
		addAccountCmd(),
		scheduleCmd(),
		deleteAccountCmd(),
	)

	root.GetRoot().AddCommand(accountsCmd)
}

func listAccountsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cloud accounts with their schedules",
		Run: func(cmd *cobra.Command, args []string) {
			var out struct {
				Accounts []models.CloudAccount `json:"accounts"`
				Total    int                   `json:"total"`
			}
			if err := apiDo("GET", "/v1/accounts?limit=200", nil, &out); err != nil {
				fmt.Println(err)
				return
			}

			if jsonOutput {
				b, _ := json.MarshalIndent(out.Accounts, "", "  ")
				fmt.Println(string(b))
				return
			}

			rows := make([][]interface{}, 0, len(out.Accounts))
			for _, a := range out.Accounts {
				rows = append(rows, []interface{}{
					a.ID, a.Provider, a.Name, a.ExternalID,
					formatSchedule(a.Schedule), formatTime(a.Schedule.NextRunAt), formatTime(a.LastScanAt),
				})
			}
			output.RenderTable(
				[]string{"ID", "Provider", "Name", "External ID", "Schedule", "Next Run", "Last Scan"},
				rows,
			)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output raw JSON instead of a table")
	return cmd
}

func addAccountCmd() *cobra.Command {
	var provider, name, externalID string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a cloud account",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{
				"provider":    provider,
				"name":        name,
				"external_id": externalID,
			}

			var account models.CloudAccount
			if err := apiDo("POST", "/v1/accounts", payload, &account); err != nil {
				return err
			}

			fmt.Printf("Account created: id=%d provider=%s name=%q\n", account.ID, account.Provider, account.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Cloud provider: aws, gcp, or azure")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&externalID, "external-id", "", "AWS account ID / GCP project ID / Azure subscription ID")
	cmd.MarkFlagRequired("provider")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("external-id")

	return cmd
}

func scheduleCmd() *cobra.Command {
	var provider string
	var id, hour, dayOfWeek, dayOfMonth int
	var frequency string
	var disable bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Set or disable an account's scan schedule",
		Long: `Set an account's recurring scan schedule. All times are UTC.

Examples:
  cloudscan accounts schedule --provider aws --id 1 --frequency daily --hour 3
  cloudscan accounts schedule --provider gcp --id 2 --frequency weekly --hour 6 --day-of-week 1
  cloudscan accounts schedule --provider azure --id 3 --frequency monthly --hour 0 --day-of-month 31
  cloudscan accounts schedule --provider aws --id 1 --disable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"enabled":   !disable,
				"frequency": frequency,
				"hour_utc":  hour,
			}
			if cmd.Flags().Changed("day-of-week") {
				payload["day_of_week"] = dayOfWeek
			}
			if cmd.Flags().Changed("day-of-month") {
				payload["day_of_month"] = dayOfMonth
			}

			path := fmt.Sprintf("/v1/accounts/%s/%d/schedule", provider, id)
			var account models.CloudAccount
			if err := apiDo("PUT", path, payload, &account); err != nil {
				return err
			}

			if disable {
				fmt.Println("Schedule disabled.")
				return nil
			}
			fmt.Printf("Schedule set: %s, next run %s\n",
				formatSchedule(account.Schedule), formatTime(account.Schedule.NextRunAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Cloud provider: aws, gcp, or azure")
	cmd.Flags().IntVar(&id, "id", 0, "Account ID")
	cmd.Flags().StringVar(&frequency, "frequency", "daily", "daily, weekly, or monthly")
	cmd.Flags().IntVar(&hour, "hour", 0, "Hour of day in UTC (0-23)")
	cmd.Flags().IntVar(&dayOfWeek, "day-of-week", 0, "Day of week for weekly schedules (0=Sunday)")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 1, "Day of month for monthly schedules (1-31)")
	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the schedule")
	cmd.MarkFlagRequired("provider")
	cmd.MarkFlagRequired("id")

	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var provider string
	var id int

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a cloud account",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/accounts/%s/%d", provider, id)
			if err := apiDo("DELETE", path, nil, nil); err != nil {
				return err
			}
			fmt.Println("Account deleted.")
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Cloud provider: aws, gcp, or azure")
	cmd.Flags().IntVar(&id, "id", 0, "Account ID")
	cmd.MarkFlagRequired("provider")
	cmd.MarkFlagRequired("id")

	return cmd
}

// apiDo calls the API with the stored bearer token and decodes the JSON
// response into out when non-nil.
func apiDo(method, path string, payload, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first (cloudscan login --username ...)")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(data))
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func formatSchedule(s models.ScheduleSpec) string {
	if !s.Enabled {
		return "disabled"
	}
	switch s.Frequency {
	case models.FrequencyWeekly:
		day := "?"
		if s.DayOfWeek != nil {
			day = time.Weekday(*s.DayOfWeek).String()[:3]
		}
		return fmt.Sprintf("weekly %s %02d:00 UTC", day, s.HourUTC)
	case models.FrequencyMonthly:
		dom := 1
		if s.DayOfMonth != nil {
			dom = *s.DayOfMonth
		}
		return fmt.Sprintf("monthly day %d %02d:00 UTC", dom, s.HourUTC)
	default:
		return fmt.Sprintf("daily %02d:00 UTC", s.HourUTC)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
