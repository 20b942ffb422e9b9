package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/internal/contact"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func TestDiscoverImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.jpg", "b.png", "notes.txt", "c.bmp", "sub/d.jpeg")

	files, err := DiscoverImages([]string{dir}, false)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), files[0])

	files, err = DiscoverImages([]string{dir}, true)
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestDiscoverImagesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "card.png", "readme.md")

	files, err := DiscoverImages([]string{
		filepath.Join(dir, "card.png"),
		filepath.Join(dir, "readme.md"),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "card.png")}, files)
}

func TestDiscoverImagesMissingPath(t *testing.T) {
	_, err := DiscoverImages([]string{"/nonexistent/cards"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestRunNoImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "notes.txt")

	cfg := DefaultConfig()
	cfg.Quiet = true
	_, err := Run(context.Background(), []string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}

func TestRunUnreadableImageReported(t *testing.T) {
	dir := t.TempDir()
	// Supported extension but not a decodable image.
	writeFiles(t, dir, "broken.png")

	cfg := DefaultConfig()
	cfg.Quiet = true
	cfg.ShowProgress = false
	cfg.Workers = 1
	result, err := Run(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.NotEmpty(t, result.Files[0].Error)
	assert.Empty(t, result.Files[0].Contacts)
}

func conf(v float64) *float64 { return &v }

func sampleResult() *Result {
	return &Result{
		Files: []FileResult{
			{
				File: "cards/a.jpg",
				Contacts: []contact.Record{{
					FullName:      "John Smith",
					Title:         "CEO",
					Emails:        []string{"john@acme.example"},
					OCRConfidence: conf(0.9),
				}},
			},
			{File: "cards/b.jpg", Error: "decoding image: bad header"},
			{File: "cards/c.jpg"},
		},
	}
}

func TestFormatText(t *testing.T) {
	out, err := Format(sampleResult(), "text")
	require.NoError(t, err)
	assert.Contains(t, out, "# cards/a.jpg")
	assert.Contains(t, out, "Name: John Smith")
	assert.Contains(t, out, "Confidence: 0.900")
	assert.Contains(t, out, "error: decoding image: bad header")
	assert.Contains(t, out, "no contacts found")
}

func TestFormatJSON(t *testing.T) {
	out, err := Format(sampleResult(), "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"file": "cards/a.jpg"`)
	assert.Contains(t, out, `"full_name": "John Smith"`)
	assert.Contains(t, out, `"error": "decoding image: bad header"`)
}

func TestFormatCSV(t *testing.T) {
	out, err := Format(sampleResult(), "csv")
	require.NoError(t, err)
	lines := []string{
		"file,full_name,title,company,emails,phones,website,address,ocr_confidence",
		"cards/a.jpg,John Smith,CEO,,john@acme.example,,,,0.900",
	}
	for _, line := range lines {
		assert.Contains(t, out, line)
	}
}

func TestFormatUnknown(t *testing.T) {
	_, err := Format(sampleResult(), "yaml")
	assert.Error(t, err)
}

func TestResultContacts(t *testing.T) {
	all := sampleResult().Contacts()
	require.Len(t, all, 1)
	assert.Equal(t, "John Smith", all[0].FullName)
}
