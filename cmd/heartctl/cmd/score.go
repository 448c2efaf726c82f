package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cenk2025/hardpath/internal/risk"
)

var (
	scoreEnergy int
	scoreHR     int
	scoreSleep  float64
	scoreHRV    int
	scoreSafe   int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the risk models without a database",
}

var scoreReadinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Score daily readiness",
	Long: `Score daily readiness from energy, resting heart rate, sleep and HRV.
Omitted inputs take the model defaults.

Example:
  heartctl score readiness --energy 7 --hr 64 --sleep 7.5 --hrv 48`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result := risk.ScoreReadiness(readinessInput(cmd))
		if GetOutput() == "json" {
			return printJSON(result)
		}
		fmt.Printf("Score:      %d\n", result.Score)
		fmt.Printf("Category:   %s\n", result.Category)
		fmt.Printf("Suggestion: %s\n", result.Suggestion)
		return nil
	},
}

var scoreOverexertionCmd = &cobra.Command{
	Use:   "overexertion",
	Short: "Classify a heart rate against a safe maximum",
	Long: `Classify an observed heart rate against the patient's safe maximum.

Example:
  heartctl score overexertion --hr 142 --safe-max 150`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := risk.DetectOverexertion(scoreHR, scoreSafe)
		if err != nil {
			return err
		}
		if GetOutput() == "json" {
			return printJSON(result)
		}
		fmt.Printf("Level:   %s\n", result.Level)
		fmt.Printf("Ratio:   %.2f\n", result.Ratio)
		fmt.Printf("Message: %s\n", result.Message)
		return nil
	},
}

// readinessInput sets only the flags the operator passed.
func readinessInput(cmd *cobra.Command) risk.ReadinessInput {
	var in risk.ReadinessInput
	if cmd.Flags().Changed("energy") {
		in.EnergyLevel = &scoreEnergy
	}
	if cmd.Flags().Changed("hr") {
		in.HeartRate = &scoreHR
	}
	if cmd.Flags().Changed("sleep") {
		in.SleepHours = &scoreSleep
	}
	if cmd.Flags().Changed("hrv") {
		in.HRVMs = &scoreHRV
	}
	return in
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreReadinessCmd, scoreOverexertionCmd)

	scoreReadinessCmd.Flags().IntVar(&scoreEnergy, "energy", 0, "energy level 1-10")
	scoreReadinessCmd.Flags().IntVar(&scoreHR, "hr", 0, "resting heart rate (bpm)")
	scoreReadinessCmd.Flags().Float64Var(&scoreSleep, "sleep", 0, "sleep hours")
	scoreReadinessCmd.Flags().IntVar(&scoreHRV, "hrv", 0, "heart rate variability (ms)")

	scoreOverexertionCmd.Flags().IntVar(&scoreHR, "hr", 0, "observed heart rate (bpm)")
	scoreOverexertionCmd.Flags().IntVar(&scoreSafe, "safe-max", 150, "safe maximum heart rate (bpm)")
	scoreOverexertionCmd.MarkFlagRequired("hr")
}
