// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the papers-dl CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/papers-dl/internal/acquire"
	"github.com/pdiddy/papers-dl/internal/fetch"
	"github.com/pdiddy/papers-dl/internal/mirror"
	"github.com/pdiddy/papers-dl/internal/secrets"
	"github.com/pdiddy/papers-dl/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the papers-dl CLI.
var rootCmd = &cobra.Command{
	Use:   "papers-dl",
	Short: "Download scientific papers from the command line",
	Long: `papers-dl resolves a DOI, PMID, or URL to a PDF by querying interchangeable
sci-hub style mirrors and other providers, and saves the first document that
really is a PDF.

It can also pull identifiers out of text or PDF files (parse), list and
probe the mirror pool (mirrors), and show what was downloaded (history).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(logWriter(), "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papers-dl.yaml or ~/.config/papers-dl/papers-dl.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log mirror activity to stderr")
	rootCmd.PersistentFlags().StringP("user-agent", "A", "", "User-Agent header (default: a desktop browser)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "overall HTTP request timeout (default 60s)")
	rootCmd.PersistentFlags().Bool("insecure", false, "skip TLS certificate verification")

	bindFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	bindFlag("user_agent", rootCmd.PersistentFlags().Lookup("user-agent"))
	bindFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	bindFlag("insecure_skip_verify", rootCmd.PersistentFlags().Lookup("insecure"))

	viper.SetDefault("mirror_timeout", fetch.DefaultMirrorTimeout)
	viper.SetDefault("strategy", string(types.StrategyConcurrent))
	viper.SetDefault("max_attempts", fetch.DefaultMaxAttempts)
	viper.SetDefault("max_bytes", int64(fetch.DefaultMaxBytes))
	viper.SetDefault("discover", true)
	viper.SetDefault("discovery_url", mirror.DefaultIndexURL)
	viper.SetDefault("mirrors", mirror.DefaultMirrors)
	viper.SetDefault("scidb_url", acquire.DefaultSciDBURL)
	viper.SetDefault("output", ".")
	viper.SetDefault("providers", "auto")
	viper.SetDefault("delay", time.Second)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papers-dl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papers-dl"))
		}
	}

	viper.SetEnvPrefix("PAPERS_DL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlag ties a viper key to a flag so the flag, when set, overrides the
// environment and config file.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// bindFlags binds the named flags of cmd, keyed by viper key. Commands call
// it when they run, so keys shared between commands follow the command
// actually invoked.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		bindFlag(key, cmd.Flags().Lookup(name))
	}
}

// logWriter returns where diagnostics go: stderr with --verbose, nowhere
// otherwise.
func logWriter() io.Writer {
	if viper.GetBool("verbose") {
		return os.Stderr
	}
	return io.Discard
}

// fetchConfig assembles the fetch settings from flags, environment, and
// the config file.
func fetchConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:            viper.GetDuration("timeout"),
			UserAgent:          viper.GetString("user_agent"),
			InsecureSkipVerify: viper.GetBool("insecure_skip_verify"),
		},
		MirrorTimeout: viper.GetDuration("mirror_timeout"),
		Strategy:      types.Strategy(viper.GetString("strategy")),
		MaxAttempts:   viper.GetInt("max_attempts"),
		MaxBytes:      viper.GetInt64("max_bytes"),
		Mirrors:       viper.GetStringSlice("mirrors"),
		Discover:      viper.GetBool("discover"),
		DiscoveryURL:  viper.GetString("discovery_url"),
		SciDBURL:      viper.GetString("scidb_url"),
	}
}

// acquisitionConfig extends fetchConfig with the saving settings.
func acquisitionConfig() types.AcquisitionConfig {
	return types.AcquisitionConfig{
		FetchConfig:   fetchConfig(),
		OutputDir:     viper.GetString("output"),
		Providers:     viper.GetString("providers"),
		WriteMetadata: viper.GetBool("metadata"),
		ResolveTitle:  viper.GetBool("rename"),
		LedgerPath:    viper.GetString("ledger"),
		ContactEmail:  loadedSecrets.Get(secrets.KeyContactEmail, viper.GetString("contact_email")),
		DownloadDelay: viper.GetDuration("delay"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
