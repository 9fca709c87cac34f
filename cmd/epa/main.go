package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "epa"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	var configPath string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Enterprise purchase assistant data pipeline",
		Version: version,
		Long: `Collects employee-discount and internal-purchase posts from social
platforms, cleans and classifies them, and serves the review dashboard API.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API",
		Long:  "Starts the periodic collection pipeline and serves the dashboard API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	var collectSource string
	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Run a one-shot collection for a single source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(configPath, collectSource)
		},
	}
	collectCmd.Flags().StringVar(&collectSource, "source", "xiaohongshu", "Source platform to collect from")

	var exportFormat, exportRange, exportOut string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Collect once and export a report",
		Long:  "Runs one collection cycle, processes it and writes the report to a file or stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(configPath, exportFormat, exportRange, exportOut)
		},
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Report format (json|csv)")
	exportCmd.Flags().StringVar(&exportRange, "range", "last7days", "Date range label for the report")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file, stdout when empty")

	rootCmd.AddCommand(serveCmd, collectCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
