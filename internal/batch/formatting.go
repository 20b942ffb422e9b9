package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"cardscan/internal/contact"
)

// Format renders a batch result in the given output format: "text", "json",
// or "csv".
func Format(result *Result, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(result)
	case "csv":
		return formatCSV(result)
	case "text", "":
		return formatText(result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func formatJSON(result *Result) (string, error) {
	bts, err := json.MarshalIndent(result, "", "  ")
	return string(bts), err
}

// formatCSV emits one row per contact, prefixed with the source file.
func formatCSV(result *Result) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	header := append([]string{"file"}, contact.FlatColumns...)
	if err := writer.Write(header); err != nil {
		return "", err
	}
	for _, f := range result.Files {
		for _, c := range f.Contacts {
			flat := c.FlatMap()
			row := make([]string, 0, len(header))
			row = append(row, f.File)
			for _, col := range contact.FlatColumns {
				row = append(row, flat[col])
			}
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(result *Result) string {
	var output strings.Builder
	for i, f := range result.Files {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", f.File)
		if f.Error != "" {
			fmt.Fprintf(&output, "error: %s\n", f.Error)
			continue
		}
		if len(f.Contacts) == 0 {
			output.WriteString("no contacts found\n")
			continue
		}
		for j, c := range f.Contacts {
			if j > 0 {
				output.WriteString("\n")
			}
			writeContact(&output, c)
		}
	}
	return output.String()
}

func writeContact(output *strings.Builder, c contact.Record) {
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(output, "%s: %s\n", label, value)
		}
	}
	write("Name", c.FullName)
	write("Title", c.Title)
	write("Company", c.Company)
	write("Email", strings.Join(c.Emails, "; "))
	write("Phone", strings.Join(c.Phones, "; "))
	write("Website", c.Website)
	write("Address", c.Address)
	if c.OCRConfidence != nil {
		fmt.Fprintf(output, "Confidence: %.3f\n", *c.OCRConfidence)
	}
}
