// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papers-dl/internal/acquire"
	"github.com/pdiddy/papers-dl/internal/fetch"
	"github.com/pdiddy/papers-dl/internal/httputil"
	"github.com/pdiddy/papers-dl/internal/ledger"
	"github.com/pdiddy/papers-dl/internal/mirror"
	"github.com/pdiddy/papers-dl/internal/pdfmeta"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [(DOI|PMID|URL)...]",
	Short: "Try to download papers with the given identifiers",
	Long: `Fetch resolves each identifier to a PDF. Direct PDF URLs are downloaded as
is; everything else is looked up on the mirror pool, all mirrors at once by
default, and the first candidate that really is a PDF is saved.

Files are named after the MD5 of their content unless --name is given or
--rename finds the paper title. Identifiers can also be read from a file
(one per line) with --input; "-" reads standard input.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringP("output", "o", "", "output directory for downloaded papers (default .)")
	fetchCmd.Flags().StringP("providers", "p", "", `comma separated providers (scihub, scidb, openalex) or mirror address fragments (default "auto")`)
	fetchCmd.Flags().StringP("input", "i", "", `file of identifiers, one per line ("-" for stdin)`)
	fetchCmd.Flags().String("name", "", "file name for the PDF (single identifier only)")
	fetchCmd.Flags().String("strategy", "", "mirror query strategy: concurrent or sequential")
	fetchCmd.Flags().Duration("mirror-timeout", 0, "timeout for each mirror lookup (default 5s)")
	fetchCmd.Flags().Bool("discover", true, "discover live mirrors before fetching")
	fetchCmd.Flags().Bool("metadata", false, "write a YAML record under <output>/metadata/")
	fetchCmd.Flags().Bool("rename", false, "rename files after the paper title when one can be found")
	fetchCmd.Flags().String("ledger", "", "SQLite file recording every saved paper")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	bindFlags(cmd, map[string]string{
		"output":         "output",
		"providers":      "providers",
		"strategy":       "strategy",
		"mirror_timeout": "mirror-timeout",
		"discover":       "discover",
		"metadata":       "metadata",
		"rename":         "rename",
		"ledger":         "ledger",
		"delay":          "delay",
	})

	ids := args
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		fromFile, err := readIdentifiers(input, cmd.InOrStdin())
		if err != nil {
			return err
		}
		ids = append(ids, fromFile...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide one or more paper identifiers (DOI, PMID, or URL)")
	}
	name, _ := cmd.Flags().GetString("name")
	if name != "" && len(ids) > 1 {
		return fmt.Errorf("--name applies to a single identifier, got %d", len(ids))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, closeFn, err := newAcquirer(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeFn()

	if len(ids) == 1 {
		if _, _, err := a.AcquirePaper(ctx, ids[0], name); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "failed:  %s (%v)\n", ids[0], err)
			return err
		}
		return nil
	}

	result := a.AcquireBatch(ctx, ids)
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed acquisition", result.Failed)
	}
	return nil
}

// newAcquirer wires the acquisition pipeline from configuration. The
// returned function releases the ledger.
func newAcquirer(ctx context.Context, out io.Writer) (*acquire.Acquirer, func(), error) {
	cfg := acquisitionConfig()
	log := logWriter()
	client := httputil.NewClient(cfg.HTTPConfig)

	pool := mirror.Load(ctx, client, cfg.Discover, cfg.DiscoveryURL, cfg.Mirrors, log)
	set, err := acquire.SelectProviders(cfg.Providers, client, cfg, pool, log)
	if err != nil {
		return nil, nil, err
	}

	a := &acquire.Acquirer{
		Providers:     set.Providers,
		Direct:        fetch.New(client, cfg.FetchConfig, log),
		OutputDir:     cfg.OutputDir,
		WriteMetadata: cfg.WriteMetadata,
		DownloadDelay: cfg.DownloadDelay,
		Out:           out,
		Log:           log,
	}
	if cfg.ResolveTitle {
		a.Titles = &pdfmeta.Resolver{Client: client, Mailto: cfg.ContactEmail, Log: log}
	}

	closeFn := func() {}
	if cfg.LedgerPath != "" {
		store, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return nil, nil, err
		}
		a.Ledger = store
		closeFn = func() { store.Close() }
	}
	return a, closeFn, nil
}

// readIdentifiers reads one identifier per line from path, skipping blank
// lines and # comments.
func readIdentifiers(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening identifier list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading identifier list: %w", err)
	}
	return ids, nil
}
