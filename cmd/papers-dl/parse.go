// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papers-dl/internal/parse"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse identifiers from a file or stdin",
	Long: `Parse prints the DOIs, ISBNs, PMIDs, and URLs found in a text or PDF file,
or in standard input when no path is given. The output can be fed back into
"papers-dl fetch --input -".`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringSliceP("match", "m", nil, "identifier types to match: doi, isbn, pmid, url (default all)")
	parseCmd.Flags().StringP("path", "p", "", "file to parse (default stdin)")
	parseCmd.Flags().StringP("format", "f", parse.FormatRaw, "output format: raw, jsonl, or csv")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	kinds, _ := cmd.Flags().GetStringSlice("match")
	path, _ := cmd.Flags().GetString("path")
	format, _ := cmd.Flags().GetString("format")

	var text string
	if path == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	} else {
		var err error
		if text, err = parse.ReadSource(path); err != nil {
			return err
		}
	}

	matches, err := parse.FindIdentifiers(text, kinds)
	if err != nil {
		return err
	}
	return parse.Write(cmd.OutOrStdout(), matches, format)
}
