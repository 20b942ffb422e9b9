// Package export writes resolved contact records to CSV and Excel files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"cardscan/internal/contact"
)

const (
	contactsSheet = "Contacts"
	summarySheet  = "Summary"
)

// Filename builds a timestamped output name, e.g. "contacts_20250114_153012.csv".
func Filename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}

// WriteCSV writes the records as CSV with a fixed header row. List fields are
// joined with "; " so the file round-trips through spreadsheet tools.
func WriteCSV(w io.Writer, records []contact.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(contact.FlatColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for i, r := range records {
		flat := r.FlatMap()
		row := make([]string, len(contact.FlatColumns))
		for j, col := range contact.FlatColumns {
			row[j] = flat[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// WriteExcel writes the records to an xlsx workbook with a Contacts sheet and
// a Summary sheet of aggregate counts.
func WriteExcel(w io.Writer, records []contact.Record) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveExcel writes the workbook to a file path.
func SaveExcel(path string, records []contact.Record) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook to %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(records []contact.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(contactsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating contacts sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}
	if err := writeContactsSheet(f, records); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummarySheet(f, records); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeContactsSheet(f *excelize.File, records []contact.Record) error {
	for j, col := range contact.FlatColumns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(contactsSheet, cell, col); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range records {
		flat := r.FlatMap()
		for j, col := range contact.FlatColumns {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(contactsSheet, cell, flat[col]); err != nil {
				return fmt.Errorf("writing row %d: %w", i, err)
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, records []contact.Record) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	s := Summarize(records)
	rows := [][2]any{
		{"Total contacts", s.Total},
		{"High confidence (> 0.8)", s.HighConfidence},
		{"Medium confidence (0.6 - 0.8)", s.MediumConfidence},
		{"Low confidence (< 0.6)", s.LowConfidence},
		{"With email", s.WithEmail},
		{"With phone", s.WithPhone},
		{"With website", s.WithWebsite},
	}
	for i, row := range rows {
		labelCell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		valueCell, err := excelize.CoordinatesToCellName(2, i+1)
		if err != nil {
			return fmt.Errorf("summary cell: %w", err)
		}
		if err := f.SetCellValue(summarySheet, labelCell, row[0]); err != nil {
			return fmt.Errorf("writing summary label: %w", err)
		}
		if err := f.SetCellValue(summarySheet, valueCell, row[1]); err != nil {
			return fmt.Errorf("writing summary value: %w", err)
		}
	}
	return nil
}

// Summary aggregates counts over a record set for the workbook's second sheet
// and the CLI's batch report.
type Summary struct {
	Total            int
	HighConfidence   int
	MediumConfidence int
	LowConfidence    int
	WithEmail        int
	WithPhone        int
	WithWebsite      int
}

// Summarize computes aggregate counts. Records without a confidence value are
// counted in the total but in none of the confidence bands.
func Summarize(records []contact.Record) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		if r.OCRConfidence != nil {
			switch c := *r.OCRConfidence; {
			case c > 0.8:
				s.HighConfidence++
			case c >= 0.6:
				s.MediumConfidence++
			default:
				s.LowConfidence++
			}
		}
		if len(r.Emails) > 0 {
			s.WithEmail++
		}
		if len(r.Phones) > 0 {
			s.WithPhone++
		}
		if r.Website != "" {
			s.WithWebsite++
		}
	}
	return s
}
