package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/skdltmxn/gothic-functions/internal/batch"
	"github.com/skdltmxn/gothic-functions/internal/merge"
	"github.com/skdltmxn/gothic-functions/internal/snippet"
	"github.com/skdltmxn/gothic-functions/internal/store"
	"github.com/skdltmxn/gothic-functions/signature"
)

var (
	buildNoSnippets bool
	buildNoStore    bool
	buildQuiet      bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse every build's signature dump and generate snippets",
	Long: `Parse the signature dump of every configured build and write:

  Error/<n>.txt    rejected lines as "line [[diagnostic]]"
  Json/<n>.json    parsed records of build n
  Json/all.json    records merged across builds
  Snippet/*.snippet hook snippets for every merged record

Paths are relative to the data directory. The records are also stored in
the index used by the lookup and stats commands.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildNoSnippets, "no-snippets", false, "skip snippet generation")
	buildCmd.Flags().BoolVar(&buildNoStore, "no-store", false, "do not update the record index")
	buildCmd.Flags().BoolVarP(&buildQuiet, "quiet", "q", false, "hide the progress bar")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create output directories: %w", err)
	}

	jobs, err := batch.Prepare(cfg)
	if err != nil {
		return err
	}

	var progress func()
	if !buildQuiet {
		bar := progressbar.NewOptions(batch.TotalLines(jobs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Parsing[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
		progress = func() { bar.Add(1) }
	}

	results, err := batch.Run(ctx, jobs, progress)
	if err != nil {
		return err
	}

	sets := make([][]*signature.Signature, len(results))
	for i, res := range results {
		path := cfg.Path(filepath.Join(cfg.Output.Errors, strconv.Itoa(res.Version)+".txt"))
		if err := batch.WriteFile(path, func(w io.Writer) error { return batch.WriteFailures(w, res.Failures) }); err != nil {
			return err
		}
		sets[i] = res.Signatures
	}

	for _, res := range results {
		if err := merge.CheckAmbiguity(res.Signatures); err != nil {
			return fmt.Errorf("version %s: %w", res.Name, err)
		}
	}

	for _, res := range results {
		path := cfg.Path(filepath.Join(cfg.Output.JSON, strconv.Itoa(res.Version)+".json"))
		if err := batch.WriteFile(path, func(w io.Writer) error { return batch.WriteJSON(w, res.Signatures) }); err != nil {
			return err
		}
	}

	merged, err := merge.Merge(sets...)
	if err != nil {
		return err
	}
	allPath := cfg.Path(filepath.Join(cfg.Output.JSON, "all.json"))
	if err := batch.WriteFile(allPath, func(w io.Writer) error { return batch.WriteJSON(w, merged) }); err != nil {
		return err
	}
	log.Infof("merged %d record(s) into %s", len(merged), allPath)

	if !buildNoSnippets {
		tmpl, err := loadTemplate()
		if err != nil {
			return err
		}
		if err := snippet.WriteAll(cfg.Path(cfg.Output.Snippets), tmpl, versionNames(), merged); err != nil {
			return err
		}
	}

	if !buildNoStore {
		if err := storeResults(results, merged); err != nil {
			return err
		}
	}

	fmt.Fprintf(output, "Build complete\n")
	for _, res := range results {
		fmt.Fprintf(output, "  %-4s %6d parsed, %6d failed\n", res.Name, len(res.Signatures), len(res.Failures))
	}
	fmt.Fprintf(output, "  Merged: %d\n", len(merged))
	return nil
}

func loadTemplate() (string, error) {
	path := cfg.Path(cfg.Output.Template)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Noticef("no snippet template at %s, using the default", path)
		return snippet.DefaultTemplate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snippet template: %w", err)
	}
	return string(data), nil
}

func versionNames() [signature.NumVersions]string {
	var names [signature.NumVersions]string
	for i := range names {
		names[i] = cfg.VersionName(i + 1)
	}
	return names
}

func storeResults(results []*batch.Result, merged []*signature.Signature) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, res := range results {
		if err := st.PutParsed(res.Version, res.Signatures); err != nil {
			return fmt.Errorf("failed to store version %s: %w", res.Name, err)
		}
		failures := make([]store.Failure, len(res.Failures))
		for i, f := range res.Failures {
			failures[i] = store.Failure{Number: f.Number, Line: f.Line, Diagnostic: f.Err.Diagnostic()}
		}
		if err := st.PutFailures(res.Version, failures); err != nil {
			return fmt.Errorf("failed to store failures of version %s: %w", res.Name, err)
		}
	}
	return st.PutMerged(merged)
}
