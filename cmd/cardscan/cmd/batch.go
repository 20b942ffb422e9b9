package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cardscan/internal/batch"
)

// batchCmd represents the batch command for processing image directories.
var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Process directories of business card images in parallel",
	Long: `Process directories (or file lists) of business card images in parallel.

Directories are scanned for supported image files; with --recursive,
subdirectories are included. Each image is processed by its own worker.

Examples:
  cardscan batch photos/
  cardscan batch photos/ --recursive --workers 8
  cardscan batch photos/ --format csv --output contacts.csv
  cardscan batch photos/ --format xlsx`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	batchConfig := scanBatchConfig(cfg, cmd)

	result, err := batch.Run(cmd.Context(), args, batchConfig)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if !batchConfig.Quiet {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d files in %s (%d workers)\n",
			len(result.Files), result.Duration.Round(time.Millisecond), result.WorkerCount)
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile, _ := cmd.Flags().GetString("output")

	return writeResult(cmd, result, format, outputFile)
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("lang", "l", "", "tesseract language(s), space-separated (e.g. \"eng deu\")")
	batchCmd.Flags().Bool("no-enrich", false, "skip the contact enrichment pass")
	batchCmd.Flags().StringP("format", "f", "", "output format: text, json, csv, xlsx")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout; xlsx: generated name)")
	batchCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (0 = number of CPUs)")
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")
}
