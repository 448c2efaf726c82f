package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cenk2025/hardpath/internal/alerting"
)

var (
	alertsFilter  string
	alertsPatient string
	alertsRules   string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Care-team alert commands",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List care-team alerts from the last 7 days",
	Long: `List the alerts the care team sees: urgent symptoms, high heart rate,
low readiness and high systolic pressure from the last 7 days, newest first.

Examples:
  heartctl alerts list --filter active
  heartctl alerts list --patient 3f2a... -o json
  heartctl alerts list --rules rules.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, ok := alerting.ParseFilter(alertsFilter)
		if !ok {
			return fmt.Errorf("invalid filter %q: must be all, active, or resolved", alertsFilter)
		}

		var rules *alerting.RuleSet
		if alertsRules != "" {
			loaded, err := alerting.LoadRulesFromFile(alertsRules)
			if err != nil {
				return fmt.Errorf("load rules: %w", err)
			}
			rules = alerting.NewRuleSet(loaded)
			PrintVerbose("loaded %d custom rules", len(loaded))
		}

		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		alerts, err := alerting.NewService(store, rules).List(context.Background(), time.Now().UTC(), filter)
		if err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}
		if alertsPatient != "" {
			alerts = alerting.ForPatient(alerts, alertsPatient)
		}

		if GetOutput() == "json" {
			return printJSON(alerts)
		}
		if len(alerts) == 0 {
			fmt.Println("No alerts.")
			return nil
		}

		fmt.Printf("\n%-17s  %-9s  %-22s  %-24s  %-8s  %s\n",
			"TIME", "SEVERITY", "TYPE", "PATIENT", "STATUS", "DETAIL")
		fmt.Println(strings.Repeat("-", 120))
		for _, a := range alerts {
			status := "active"
			if a.Resolved {
				status = "resolved"
			}
			fmt.Printf("%-17s  %-9s  %-22s  %-24s  %-8s  %s\n",
				a.Timestamp.Format("2006-01-02 15:04"),
				a.Severity,
				a.Type,
				truncate(a.PatientName, 24),
				status,
				a.Detail,
			)
		}
		fmt.Printf("\nTotal: %d alert(s)\n", len(alerts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)

	alertsListCmd.Flags().StringVar(&alertsFilter, "filter", "all", "all, active, or resolved")
	alertsListCmd.Flags().StringVar(&alertsPatient, "patient", "", "only alerts for this patient id")
	alertsListCmd.Flags().StringVar(&alertsRules, "rules", "", "custom alert rules file to evaluate")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
