package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/skdltmxn/gothic-functions/internal/config"
	"github.com/skdltmxn/gothic-functions/internal/store"
)

var (
	outputFile string
	configFile string
	workDir    string
	verbose    int
	output     io.Writer
	cfg        *config.Config
)

var log = commonlog.GetLogger("gfuncs")

var rootCmd = &cobra.Command{
	Use:   "gfuncs",
	Short: "Demangled signature parser and hook snippet generator",
	Long: `gfuncs parses demangled MSVC function signatures, one per line and
prefixed with their address, into structured records.

It can parse single lines, build per-version record sets from the
signature dumps of every game build, merge them into one record per
function and generate hook code snippets for each.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configFile != "" {
			cfg, err = config.Load(configFile)
			if err == nil {
				cfg.Resolve(workDir)
			}
		} else {
			cfg, err = config.LoadFromDir(workDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var logFile *string
		if cfg.Logging.File != "" {
			logFile = &cfg.Logging.File
		}
		commonlog.Configure(cfg.Logging.Verbosity+verbose, logFile)

		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: gfuncs.yaml or .gfuncs/config.yaml in --dir)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "d", ".", "project directory")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(snippetCmd)
	rootCmd.AddCommand(cleanCmd)
}

// openStore opens the index written by build.
func openStore() (*store.Store, error) {
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return nil, fmt.Errorf("no index at %s, run build first: %w", cfg.Store.Path, err)
	}
	return store.Open(cfg.Store.Path)
}
