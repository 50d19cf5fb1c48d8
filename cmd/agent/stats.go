package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/idleforest/idleforest/internal/localstore"
	"github.com/idleforest/idleforest/internal/services/forest"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show forest metrics for the local usage counter",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringP("output", "o", "", "Output format (json)")
}

func runStats(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")

	return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
		requests, _, err := rt.store.GetInt64(ctx, localstore.KeyLifetimeCount)
		if err != nil {
			return err
		}

		stats := forest.NewStatsClient(rt.cfg.StatsURL, rt.cfg.SDKPublicKey, rt.cfg.StatsTimeout)
		m, err := forest.NewService(stats, nil).ForRequests(ctx, requests)
		if err != nil {
			pterm.Error.Println("Could not reach the stats service.")
			return err
		}

		if output == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		return printMetrics(requests, m)
	})
}

func printMetrics(requests int64, m forest.Metrics) error {
	rows := pterm.TableData{{"Metric", "Value"}}
	rows = append(rows, []string{"Your requests", fmt.Sprintf("%d", requests)})
	rows = append(rows, []string{"Trees planted", fmt.Sprintf("%d", m.TotalTrees)})
	if m.IsMinimumTree {
		rows = append(rows, []string{"First tree progress", fmt.Sprintf("%.0f%%", m.DisplayProgress*100)})
	} else {
		rows = append(rows, []string{"Your progress", fmt.Sprintf("%.2f trees", m.DisplayProgress)})
	}
	rows = append(rows, []string{"Your earnings", fmt.Sprintf("$%.4f", m.UserEarnings)})
	rows = append(rows, []string{"Seeds", fmt.Sprintf("%d", m.Seeds)})
	rows = append(rows, []string{"CO2 saved (you)", fmt.Sprintf("%.2f kg", m.PersonalCO2Saved)})
	rows = append(rows, []string{"CO2 saved (all)", fmt.Sprintf("%.2f kg", m.TotalCO2Saved)})

	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
