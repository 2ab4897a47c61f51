package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"transcript-logger/internal/loki"
	"transcript-logger/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print windowed message-type counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		lokiURL, _ := cmd.Flags().GetString("loki-url")
		job, _ := cmd.Flags().GetString("job")
		window, _ := cmd.Flags().GetString("window")
		categories, _ := cmd.Flags().GetStringSlice("categories")

		client := loki.New(loki.Config{BaseURL: lokiURL, Job: job})
		agg := stats.New(client, job, categories...)

		w, err := agg.MessageTypeCounts(cmd.Context(), window)
		if err != nil {
			return err
		}

		fmt.Printf("Window %s (%s — %s)\n", w.TimeRange,
			w.Start.Local().Format("2006-01-02 15:04:05"),
			w.End.Local().Format("2006-01-02 15:04:05"))

		names := make([]string, 0, len(w.Counts))
		for name := range w.Counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-12s %d\n", name, w.Counts[name])
		}
		fmt.Printf("  %-12s %d\n", "total", w.TotalCount)
		return nil
	},
}

func init() {
	statsCmd.Flags().String("loki-url", envOrDefault("LOKI_URL", "http://localhost:3100"), "Loki base URL")
	statsCmd.Flags().String("job", envOrDefault("LOKI_JOB", "transcript-logger"), "job identity label")
	statsCmd.Flags().String("window", "24h", "named window: 1h, 24h, or 7d")
	statsCmd.Flags().StringSlice("categories", stats.DefaultCategories, "message types to count")
}
