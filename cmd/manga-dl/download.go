package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/download"
	"github.com/handiism/manga-downloader/internal/manifest"
	"github.com/handiism/manga-downloader/internal/model"
	"github.com/handiism/manga-downloader/internal/output"
)

var (
	outputDir       string
	pageSize        string
	reportPath      string
	retryFailedOnly bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <manifest>",
	Short: "Download the chapters listed in a manifest",
	Long: `Download every chapter listed in a YAML or JSON manifest and write one PDF
per chapter to the output directory.

A summary of per-chapter outcomes is printed when the batch finishes and can
also be saved with --report. The command exits non-zero if any chapter failed.

Examples:
  manga-dl download chapters.yaml
  manga-dl download chapters.yaml --output-dir ~/Manga --page-size a4
  manga-dl download chapters.yaml --report outcome.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := selectedFormat()
		if err != nil {
			return err
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if outputDir != "" {
			settings.OutputPath = outputDir
		}
		if pageSize != "" {
			settings.PageSize = config.PageSize(strings.ToLower(pageSize))
		}
		if cmd.Flags().Changed("retry-failed-only") {
			settings.RetryFailedOnly = retryFailedOnly
		}

		jobs, err := manifest.Load(args[0])
		if err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		manager := download.NewManager(settings, printProgress, download.WithLogger(logger))

		fmt.Println("📚 Manga Downloader")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Println()

		outcomes, err := manager.ProcessBatch(ctx, jobs)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			fmt.Println("\nDownload cancelled.")
			return ctx.Err()
		}

		summary := model.Summarize(outcomes)
		fmt.Println()
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		if err := output.Print(format, summary); err != nil {
			return err
		}

		if reportPath != "" {
			if err := output.WriteFile(ctx, reportPath, format, summary); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			logger.Info("report written", zap.String("path", reportPath))
		}

		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d chapter(s) failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "directory for finished PDFs (overrides config)")
	downloadCmd.Flags().StringVar(&pageSize, "page-size", "", "page size: letter or a4 (overrides config)")
	downloadCmd.Flags().StringVar(&reportPath, "report", "", "also write the outcome summary to this file")
	downloadCmd.Flags().BoolVar(&retryFailedOnly, "retry-failed-only", false, "re-run only failed chapters on batch retry")
}

func printProgress(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !verbose {
		return
	}

	prefix := ""
	switch event.Level {
	case download.LevelError:
		prefix = "❌ "
	case download.LevelWarning:
		prefix = "⚠️  "
	case download.LevelSuccess:
		prefix = "✅ "
	case download.LevelInfo:
		prefix = "ℹ️  "
	default:
		prefix = "   "
	}

	if event.Total > 0 {
		fmt.Printf("%s[%d/%d] %s\n", prefix, event.Completed, event.Total, event.Message)
		return
	}
	fmt.Println(prefix + event.Message)
}
