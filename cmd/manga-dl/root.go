package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/output"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "manga-dl",
	Short: "Download manga chapters and assemble them into PDFs",
	Long: `manga-dl downloads the page images of manga chapters and assembles each
chapter into a single verified PDF document.

The pipeline includes:
  - Concurrent page downloads with retries and exponential backoff
  - Image validation and PNG normalization
  - Page layout on Letter or A4 pages with document metadata
  - Integrity verification before a document is published
  - Whole-batch retries for failed chapters`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (.yaml, .json, .toml or .env); MANGADL_* variables override it",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "show verbose progress and debug logs",
	)

	rootCmd.AddCommand(downloadCmd, configCmd)
}

// loadSettings reads settings from --config and the environment.
func loadSettings() (*config.Settings, error) {
	return config.Load(cfgFile)
}

// selectedFormat returns the --output format.
func selectedFormat() (output.Format, error) {
	return output.ParseFormat(outputFormat)
}

// newLogger builds the diagnostic logger. Warnings and errors go to stderr;
// --verbose adds debug output.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.DisableStacktrace = true
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
