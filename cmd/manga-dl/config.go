package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handiism/manga-downloader/internal/config"
	"github.com/handiism/manga-downloader/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Long: `Write a config file containing every setting with its default value.

The format follows the file extension. Without a path, ".env" in the current
directory is created. Existing files are never overwritten.

Examples:
  manga-dl config init
  manga-dl config init ~/.config/manga-dl/config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".env"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefaults(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := selectedFormat()
		if err != nil {
			return err
		}
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if err := output.Print(format, settings); err != nil {
			return err
		}
		return settings.Validate()
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
