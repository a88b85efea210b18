package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/gothic-functions/signature"
)

var lookupSnippet bool

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Look up merged records by address or name",
	Long: `Look up records in the index written by build.

Query can be:
  - Address: lookup 0x00401000 (matches any build's address)
  - Name: lookup zCVob::GetID (substring of Class::Name)`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().BoolVarP(&lookupSnippet, "snippet", "s", false, "print the hook code of each match")
}

func runLookup(cmd *cobra.Command, args []string) error {
	query := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var found []*signature.Signature
	if strings.HasPrefix(query, "0x") || strings.HasPrefix(query, "0X") {
		found, err = st.LookupAddress("0x" + query[2:])
	} else {
		found, err = st.LookupName(query)
	}
	if err != nil {
		return fmt.Errorf("failed to search records: %w", err)
	}

	for _, sig := range found {
		printSignature(sig)
		if lookupSnippet {
			fmt.Fprintln(output, snippetCode(sig))
		}
	}

	if len(found) == 0 {
		fmt.Fprintf(output, "No records found matching '%s'\n", query)
	} else {
		fmt.Fprintf(output, "Found %d record(s)\n", len(found))
	}
	return nil
}
