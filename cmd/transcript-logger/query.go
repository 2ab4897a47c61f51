package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"transcript-logger/internal/loki"
)

var queryCmd = &cobra.Command{
	Use:   "query <selector>",
	Short: "Run a raw range query and print the matching streams",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lokiURL, _ := cmd.Flags().GetString("loki-url")
		since, _ := cmd.Flags().GetDuration("since")

		client := loki.New(loki.Config{BaseURL: lokiURL})

		var start, end time.Time
		if since > 0 {
			end = time.Now()
			start = end.Add(-since)
		}

		result, err := client.Query(cmd.Context(), args[0], start, end)
		if err != nil {
			return err
		}

		if len(result.Streams) == 0 {
			fmt.Println("no matching streams")
			return nil
		}

		for _, stream := range result.Streams {
			fmt.Printf("%s (%d entries)\n", formatLabels(stream.Labels), len(stream.Entries))
			for _, entry := range stream.Entries {
				ts := time.Unix(0, entry.TimestampNanos).Local().Format("2006-01-02 15:04:05")
				fmt.Printf("  %s  %s\n", ts, entry.Line)
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().String("loki-url", envOrDefault("LOKI_URL", "http://localhost:3100"), "Loki base URL")
	queryCmd.Flags().Duration("since", 0, "query window ending now (default: last 24h)")
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
