// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papers-dl/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history [identifier]",
	Short: "Show papers recorded in the download ledger",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("ledger", "", "SQLite ledger written by fetch --ledger")
	historyCmd.Flags().Int("limit", ledger.DefaultLimit, "maximum number of rows")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, map[string]string{"ledger": "ledger"})
	path := viper.GetString("ledger")
	if path == "" {
		return fmt.Errorf("no ledger configured; pass --ledger or set ledger in papers-dl.yaml")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var identifier string
	if len(args) == 1 {
		identifier = args[0]
	}
	papers, err := store.List(cmd.Context(), identifier, limit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Fetched", "Identifier", "Provider", "Size", "Path", "Title"})
	table.SetAutoWrapText(false)
	for _, p := range papers {
		table.Append([]string{
			p.FetchedAt.Local().Format(time.DateTime),
			p.Identifier,
			p.Provider,
			strconv.FormatInt(p.Size, 10),
			p.PDFPath,
			p.Title,
		})
	}
	table.Render()
	return nil
}
