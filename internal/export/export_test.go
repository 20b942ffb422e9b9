package export

import (
	"bytes"
	"encoding/csv"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cardscan/internal/contact"
)

func conf(v float64) *float64 { return &v }

func sampleRecords() []contact.Record {
	return []contact.Record{
		{
			FullName:      "John Smith",
			Title:         "Senior Software Engineer",
			Company:       "Tech Solutions Inc.",
			Emails:        []string{"john.smith@techsolutions.com"},
			Phones:        []string{"(555) 123-4567"},
			Website:       "www.techsolutions.com",
			Address:       "123 Main St, Anytown, NY 12345",
			OCRConfidence: conf(0.92),
		},
		{
			FullName:      "Jane Doe",
			Emails:        []string{"jane@acme.example", "j.doe@acme.example"},
			OCRConfidence: conf(0.65),
		},
		{
			FullName: "No Confidence",
			Phones:   []string{"+15551234567"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, contact.FlatColumns, rows[0])
	assert.Equal(t, "John Smith", rows[1][0])
	assert.Equal(t, "0.920", rows[1][7])
	assert.Equal(t, "jane@acme.example; j.doe@acme.example", rows[2][3])
	assert.Equal(t, "", rows[3][7])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Contacts", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, contact.FlatColumns, rows[0])
	assert.Equal(t, "John Smith", rows[1][0])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, "Total contacts", summary[0][0])
	assert.Equal(t, "3", summary[0][1])
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.HighConfidence)
	assert.Equal(t, 1, s.MediumConfidence)
	assert.Equal(t, 0, s.LowConfidence)
	assert.Equal(t, 2, s.WithEmail)
	assert.Equal(t, 2, s.WithPhone)
	assert.Equal(t, 1, s.WithWebsite)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestFilename(t *testing.T) {
	name := Filename("contacts", "csv")
	assert.Regexp(t, regexp.MustCompile(`^contacts_\d{8}_\d{6}\.csv$`), name)
}
