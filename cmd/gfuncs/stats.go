package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/gothic-functions/signature"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display record and failure counts",
	Long:  `Display how many records and failures the last build stored for every game build, and the merged record count.`,
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	fmt.Fprintf(output, "Index: %s\n", cfg.Store.Path)
	for v := 1; v <= signature.NumVersions; v++ {
		parsed, failed := stats.Parsed[v-1], stats.Failures[v-1]
		rate := 0.0
		if total := parsed + failed; total > 0 {
			rate = float64(parsed) * 100 / float64(total)
		}
		fmt.Fprintf(output, "%-4s Parsed: %d, Failed: %d (%.1f%% parsed)\n", cfg.VersionName(v), parsed, failed, rate)
	}
	fmt.Fprintf(output, "Merged Records: %d\n", stats.Merged)
	return nil
}
