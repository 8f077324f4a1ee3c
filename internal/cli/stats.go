package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show client operation statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := collector.Snapshot()
		if len(snap.Operations) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		fmt.Printf("Uptime: %.1fs\n\n", snap.UptimeSeconds)
		fmt.Printf("%-16s %8s %10s %10s %10s\n", "OPERATION", "COUNT", "AVG MS", "MIN MS", "MAX MS")
		for _, op := range snap.Operations {
			fmt.Printf("%-16s %8d %10.1f %10d %10d\n",
				op.Name, op.Count, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
