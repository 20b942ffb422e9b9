package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cardscan/internal/batch"
	"cardscan/internal/config"
	"cardscan/internal/export"
)

// scanCmd represents the scan command for extracting contacts from images.
var scanCmd = &cobra.Command{
	Use:   "scan [files...]",
	Short: "Extract contact records from business card images",
	Long: `Extract contact records from one or more business card images.

Each image may contain up to three cards; every detected card yields one
contact record. Supported formats: JPEG, PNG, BMP.

Examples:
  cardscan scan card.jpg
  cardscan scan front.jpg back.jpg --lang "eng deu"
  cardscan scan card.jpg --format json
  cardscan scan cards/*.jpg --format xlsx --output contacts.xlsx`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runScanCommand,
}

// scanBatchConfig maps the centralized configuration to batch.Config.
// CLI flags override config file values.
func scanBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	batchConfig := batch.DefaultConfig()

	batchConfig.Lang = cfg.Scan.Lang
	if cmd.Flags().Changed("lang") {
		batchConfig.Lang, _ = cmd.Flags().GetString("lang")
	}

	batchConfig.Enrich = cfg.Scan.Enrich
	if noEnrich, _ := cmd.Flags().GetBool("no-enrich"); noEnrich {
		batchConfig.Enrich = false
	}

	batchConfig.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		batchConfig.Workers, _ = cmd.Flags().GetInt("workers")
	}

	batchConfig.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	}

	batchConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	batchConfig.ShowProgress = cfg.Batch.ShowProgress && !batchConfig.Quiet

	return batchConfig
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	batchConfig := scanBatchConfig(cfg, cmd)

	result, err := batch.Run(cmd.Context(), args, batchConfig)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile, _ := cmd.Flags().GetString("output")

	return writeResult(cmd, result, format, outputFile)
}

// writeResult renders the batch result in the requested format, to stdout
// or to the output file. The xlsx format always writes a file.
func writeResult(cmd *cobra.Command, result *batch.Result, format, outputFile string) error {
	if format == "xlsx" {
		if outputFile == "" {
			outputFile = export.Filename("contacts", "xlsx")
		}
		if err := export.SaveExcel(outputFile, result.Contacts()); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d contacts to %s\n",
			len(result.Contacts()), outputFile)
		return nil
	}

	output, err := batch.Format(result, format)
	if err != nil {
		return err
	}
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		return nil
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("lang", "l", "", "tesseract language(s), space-separated (e.g. \"eng deu\")")
	scanCmd.Flags().Bool("no-enrich", false, "skip the contact enrichment pass")
	scanCmd.Flags().StringP("format", "f", "", "output format: text, json, csv, xlsx")
	scanCmd.Flags().StringP("output", "o", "", "output file (default: stdout; xlsx: generated name)")
	scanCmd.Flags().IntP("workers", "w", 0, "number of parallel workers (0 = number of CPUs)")
	scanCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	scanCmd.Flags().BoolP("quiet", "q", false, "suppress progress output")
}
