package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/gothic-functions/internal/batch"
	"github.com/skdltmxn/gothic-functions/signature"
)

var (
	parseFile    string
	parseVersion int
	parseFormat  string
)

var parseCmd = &cobra.Command{
	Use:   "parse [line...]",
	Short: "Parse signature lines",
	Long: `Parse demangled signature lines and print the resulting records.

Lines are taken from the arguments, or from --file ("-" reads stdin).
Every line must start with its 0x-prefixed 8 digit address, e.g.

  gfuncs parse "0x00401000 public: int __thiscall zCVob::GetID(void)"

Supported formats:
  - text: Human-readable text (default)
  - json: JSON format`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFile, "file", "f", "", "read lines from file")
	parseCmd.Flags().IntVarP(&parseVersion, "version", "V", signature.NumVersions, "1-based build index the addresses belong to")
	parseCmd.Flags().StringVar(&parseFormat, "format", "text", "output format (text, json)")
}

type parseDump struct {
	Line       string               `json:"line"`
	Signature  *signature.Signature `json:"signature,omitempty"`
	Stage      string               `json:"stage,omitempty"`
	Diagnostic string               `json:"diagnostic,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseFormat != "text" && parseFormat != "json" {
		return fmt.Errorf("unknown format: %s", parseFormat)
	}

	p, err := signature.NewParser(parseVersion)
	if err != nil {
		return err
	}

	lines, err := parseInput(args)
	if err != nil {
		return err
	}

	dumps := make([]parseDump, 0, len(lines))
	failed := 0
	for _, line := range lines {
		d := parseDump{Line: line}
		sig, err := p.Build(line)
		if err != nil {
			var pe *signature.ParseError
			if !errors.As(err, &pe) {
				return err
			}
			d.Stage, d.Diagnostic = pe.Stage, pe.Diagnostic()
			failed++
		} else {
			d.Signature = sig
		}
		dumps = append(dumps, d)
	}

	if parseFormat == "json" {
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dumps); err != nil {
			return err
		}
	} else {
		for _, d := range dumps {
			printParseDump(d)
		}
	}

	log.Infof("%d line(s), %d failed", len(lines), failed)
	return nil
}

func parseInput(args []string) ([]string, error) {
	switch {
	case parseFile == "-":
		return batch.ReadLines(os.Stdin)
	case parseFile != "":
		f, err := os.Open(parseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		return batch.ReadLines(f)
	case len(args) == 0:
		return nil, errors.New("no lines given: pass them as arguments or use --file")
	default:
		return args, nil
	}
}

func printParseDump(d parseDump) {
	if d.Signature == nil {
		fmt.Fprintf(output, "%s [[%s]]\n", d.Line, d.Diagnostic)
		return
	}
	printSignature(d.Signature)
}

func printSignature(sig *signature.Signature) {
	fmt.Fprintf(output, "Signature:\n")
	fmt.Fprintf(output, "  Original: %s\n", sig.Original)
	fmt.Fprintf(output, "  Short: %s\n", sig.Short)
	if sig.Visibility != "" {
		fmt.Fprintf(output, "  Visibility: %s\n", sig.Visibility)
	}
	fmt.Fprintf(output, "  CallingConvention: %s\n", sig.CallingConvention)
	if sig.ReturnType != "" {
		fmt.Fprintf(output, "  ReturnType: %s\n", sig.ReturnType)
	}
	if sig.Class != "" {
		fmt.Fprintf(output, "  Class: %s\n", sig.Class)
	}
	fmt.Fprintf(output, "  Name: %s\n", sig.Name)
	fmt.Fprintf(output, "  Parameters: (%s)\n", strings.Join(sig.Parameters, ", "))
	fmt.Fprintf(output, "  IsStatic: %v\n", sig.IsStatic)
	fmt.Fprintf(output, "  IsVirtual: %v\n", sig.IsVirtual)
	fmt.Fprintf(output, "  IsConst: %v\n", sig.IsConst)
	for _, v := range sig.Versions() {
		fmt.Fprintf(output, "  Address[%s]: %s\n", cfg.VersionName(v), sig.Addresses[v-1])
	}
	fmt.Fprintln(output)
}
