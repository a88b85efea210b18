package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/gothic-functions/internal/snippet"
	"github.com/skdltmxn/gothic-functions/signature"
)

var (
	snippetVersion int
	snippetRender  bool
)

var snippetCmd = &cobra.Command{
	Use:   "snippet <line>",
	Short: "Print the hook code for one signature line",
	Long: `Parse one signature line with the version given by --version and print
its hook code. With --render the whole snippet template is filled in.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnippet,
}

func init() {
	snippetCmd.Flags().IntVarP(&snippetVersion, "version", "V", signature.NumVersions, "1-based build index the address belongs to")
	snippetCmd.Flags().BoolVarP(&snippetRender, "render", "r", false, "fill in the snippet template")
}

func runSnippet(cmd *cobra.Command, args []string) error {
	p, err := signature.NewParser(snippetVersion)
	if err != nil {
		return err
	}
	sig, err := p.Build(args[0])
	if err != nil {
		return err
	}

	if !snippetRender {
		fmt.Fprint(output, snippetCode(sig))
		return nil
	}
	tmpl, err := loadTemplate()
	if err != nil {
		return err
	}
	fmt.Fprint(output, snippet.New(sig, versionNames()).Render(tmpl))
	return nil
}

func snippetCode(sig *signature.Signature) string {
	s := snippet.New(sig, versionNames())
	return "// " + s.Title() + "\n" + s.Code()
}
