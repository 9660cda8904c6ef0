// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pdiddy/papers-dl/internal/httputil"
	"github.com/pdiddy/papers-dl/internal/mirror"
)

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "List the mirror pool",
	Long: `Mirrors prints the pool fetch would start from: the discovered mirrors, or the
configured list when discovery is off or fails. With --probe every mirror
is requested concurrently and its status and latency are shown.`,
	RunE: runMirrors,
}

func init() {
	mirrorsCmd.Flags().Bool("discover", true, "discover live mirrors")
	mirrorsCmd.Flags().Bool("probe", false, "check whether each mirror responds")
	mirrorsCmd.Flags().Duration("mirror-timeout", 0, "timeout for each probe (default 5s)")

	rootCmd.AddCommand(mirrorsCmd)
}

func runMirrors(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, map[string]string{
		"discover":       "discover",
		"mirror_timeout": "mirror-timeout",
	})
	cfg := fetchConfig()
	client := httputil.NewClient(cfg.HTTPConfig)
	pool := mirror.Load(cmd.Context(), client, cfg.Discover, cfg.DiscoveryURL, cfg.Mirrors, logWriter())

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	probe, _ := cmd.Flags().GetBool("probe")
	if !probe {
		table.SetHeader([]string{"#", "Mirror"})
		for i, m := range pool.Mirrors() {
			table.Append([]string{strconv.Itoa(i + 1), m.String()})
		}
		table.Render()
		return nil
	}

	table.SetHeader([]string{"#", "Mirror", "Status", "Latency"})
	up := 0
	for i, h := range mirror.Probe(cmd.Context(), client, pool, cfg.MirrorTimeout) {
		status := strconv.Itoa(h.Status)
		if h.Err != nil {
			status = "error"
		}
		if h.Up() {
			up++
		}
		table.Append([]string{strconv.Itoa(i + 1), h.Mirror.String(), status, h.Latency.Round(time.Millisecond).String()})
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d mirrors responding\n", up, pool.Len())
	return nil
}
