// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-table CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-table/internal/config"
	"github.com/pdiddy/arxiv-table/internal/logging"
	"github.com/pdiddy/arxiv-table/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	appConfig types.Config
	logger    = zap.NewNop()
)

// flagKeys maps command-line flags to the viper keys they override. Only the
// running command's flags are bound, so fetch and run can share keys.
var flagKeys = map[string]string{
	"log-level":   config.KeyLogLevel,
	"max-results": config.KeyFetchMaxResults,
	"first":       config.KeyFetchFirstResult,
	"fields":      config.KeyFetchFields,
	"page-size":   config.KeyFetchPageSize,
	"base-url":    config.KeyFetchBaseURL,
	"dest":        config.KeyDownloadDestDir,
	"max-pdfs":    config.KeyDownloadMaxPDFs,
	"workers":     config.KeyDownloadWorkers,
	"db":          config.KeyStorePath,
}

// rootCmd is the base command for the arxiv-table CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-table",
	Short: "Fetch arXiv search results as a table and download their PDFs",
	Long: `arxiv-table queries the arXiv search API, flattens the Atom feed into a
table with one row per paper, and downloads the papers' PDFs into a local
directory using [author](year)title.pdf filenames.

Tables can be written as YAML, JSON or CSV and saved as named snapshots in a
SQLite database so a later download run can pick them up.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
				bindErr = viper.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return bindErr
		}
		if noClean, _ := cmd.Flags().GetBool("no-clean"); noClean {
			viper.Set(config.KeyFetchCleanAbstract, false)
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		appConfig = cfg

		l, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-table.yaml or ~/.config/arxiv-table/arxiv-table.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
}

func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	config.SetDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-table")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-table"))
		}
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

var newHTTPClient = func(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
