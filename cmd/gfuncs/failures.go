package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var failuresLimit int

var failuresCmd = &cobra.Command{
	Use:   "failures <version>",
	Short: "List lines the last build rejected",
	Long: `List the lines of one game build that the last build could not parse,
with their line number and diagnostic. Version is the 1-based build index.`,
	Args: cobra.ExactArgs(1),
	RunE: runFailures,
}

func init() {
	failuresCmd.Flags().IntVarP(&failuresLimit, "limit", "n", 0, "limit number of failures shown (0 = unlimited)")
}

func runFailures(cmd *cobra.Command, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version: %s", args[0])
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	failures, err := st.Failures(version)
	if err != nil {
		return err
	}

	for i, f := range failures {
		if failuresLimit > 0 && i >= failuresLimit {
			fmt.Fprintf(output, "... and %d more\n", len(failures)-failuresLimit)
			break
		}
		fmt.Fprintf(output, "%6d: %s [[%s]]\n", f.Number, f.Line, f.Diagnostic)
	}
	fmt.Fprintf(output, "\nTotal: %d failure(s) for %s\n", len(failures), cfg.VersionName(version))
	return nil
}
