package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every record from the index",
	Long:  `Remove the parsed, merged and failure records stored by build. Files in the data directory are left untouched.`,
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Clear(); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	log.Infof("cleared %s", cfg.Store.Path)
	fmt.Fprintf(output, "Index cleared: %s\n", cfg.Store.Path)
	return nil
}
