// Package batch runs the scanning pipeline over many image files and
// formats the combined results for the CLI.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cardscan/internal/contact"
	"cardscan/internal/pipeline"
)

// Config controls a batch run.
type Config struct {
	Lang         string
	Enrich       bool
	Workers      int
	Recursive    bool
	ShowProgress bool
	Quiet        bool
}

// DefaultConfig returns batch defaults matching the pipeline defaults.
func DefaultConfig() *Config {
	p := pipeline.DefaultConfig()
	return &Config{
		Lang:         p.Lang,
		Enrich:       p.Enrich,
		Workers:      p.Workers,
		ShowProgress: true,
	}
}

// FileResult holds the outcome for one input file.
type FileResult struct {
	File     string           `json:"file"`
	Contacts []contact.Record `json:"contacts"`
	Error    string           `json:"error,omitempty"`
}

// Result is the outcome of a batch run.
type Result struct {
	Files       []FileResult  `json:"files"`
	Duration    time.Duration `json:"-"`
	WorkerCount int           `json:"-"`
}

// Contacts returns all successfully extracted records across the batch.
func (r *Result) Contacts() []contact.Record {
	var all []contact.Record
	for _, f := range r.Files {
		all = append(all, f.Contacts...)
	}
	return all
}

// Run discovers image files under the given paths and processes them.
func Run(ctx context.Context, paths []string, cfg *Config) (*Result, error) {
	files, err := DiscoverImages(paths, cfg.Recursive)
	if err != nil {
		return nil, fmt.Errorf("discovering image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	builder := pipeline.NewBuilder().
		WithLanguage(cfg.Lang).
		WithEnrichment(cfg.Enrich).
		WithWorkers(cfg.Workers)
	if cfg.ShowProgress && !cfg.Quiet {
		builder = builder.WithProgress(func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rProcessing %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		})
	}
	pl, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing pipeline: %v\n", err)
		}
	}()

	start := time.Now()
	result := &Result{
		Files:       make([]FileResult, len(files)),
		WorkerCount: pl.Config().Workers,
	}

	// Unreadable files are reported in place; the readable remainder is
	// processed as one pipeline batch.
	images := make([][]byte, 0, len(files))
	indices := make([]int, 0, len(files))
	for i, file := range files {
		result.Files[i] = FileResult{File: file}
		data, err := os.ReadFile(file)
		if err != nil {
			result.Files[i].Error = err.Error()
			continue
		}
		images = append(images, data)
		indices = append(indices, i)
	}

	if len(images) > 0 {
		processed, err := pl.ProcessImages(ctx, images)
		if err != nil {
			return nil, fmt.Errorf("batch processing failed: %w", err)
		}
		for j, pr := range processed {
			i := indices[j]
			if pr.Err != nil {
				result.Files[i].Error = pr.Err.Error()
				continue
			}
			result.Files[i].Contacts = pr.Records
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}
