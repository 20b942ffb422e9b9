// Package pipeline wires the card-scanning stages together: decode,
// segmentation, recognition, field resolution, and optional enrichment.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"cardscan/internal/contact"
	"cardscan/internal/enrich"
	"cardscan/internal/imgio"
	"cardscan/internal/ocr"
	"cardscan/internal/resolve"
	"cardscan/internal/segment"
)

// Config holds configuration for the pipeline and its components.
type Config struct {
	// Lang is the Tesseract language string; multiple languages are
	// space-separated ("eng deu").
	Lang string
	// Enrich applies local post-extraction cleanup to each record.
	Enrich bool
	// Segmenter holds the card detection thresholds.
	Segmenter segment.Config
	// Workers bounds parallel batch processing (0 = NumCPU).
	Workers int
	// Progress, when set, is called after each image of a batch completes.
	Progress func(done, total int)
}

// DefaultConfig returns a pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Lang:      ocr.DefaultLang,
		Enrich:    true,
		Segmenter: segment.DefaultConfig(),
		Workers:   runtime.NumCPU(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithLanguage sets the recognition language.
func (b *Builder) WithLanguage(lang string) *Builder {
	if lang != "" {
		b.cfg.Lang = lang
	}
	return b
}

// WithEnrichment toggles post-extraction record cleanup.
func (b *Builder) WithEnrichment(enabled bool) *Builder {
	b.cfg.Enrich = enabled
	return b
}

// WithSegmenterConfig overrides the card detection thresholds.
func (b *Builder) WithSegmenterConfig(cfg segment.Config) *Builder {
	b.cfg.Segmenter = cfg
	return b
}

// WithWorkers sets the parallel worker count for batch processing.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Workers = n
	}
	return b
}

// WithProgress sets the per-image batch progress callback.
func (b *Builder) WithProgress(fn func(done, total int)) *Builder {
	b.cfg.Progress = fn
	return b
}

// WithLogger sets the pipeline logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks the configuration for inconsistencies.
func (b *Builder) Validate() error {
	if strings.TrimSpace(b.cfg.Lang) == "" {
		return errors.New("recognition language is empty")
	}
	s := b.cfg.Segmenter
	if s.MinAreaRatio <= 0 || s.MaxAreaRatio <= s.MinAreaRatio {
		return fmt.Errorf("invalid segmenter area ratios: min %.3f max %.3f", s.MinAreaRatio, s.MaxAreaRatio)
	}
	if s.MaxCards <= 0 {
		return errors.New("segmenter max cards must be > 0")
	}
	if s.MinCropSize <= 0 {
		return errors.New("segmenter minimum crop size must be > 0")
	}
	return nil
}

// Pipeline runs the full photo-to-contacts flow. A Pipeline is safe for
// sequential use; ProcessImages spawns per-worker recognition engines for
// parallel batches.
type Pipeline struct {
	cfg       Config
	logger    *slog.Logger
	segmenter *segment.Segmenter
	engine    *ocr.Engine
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       b.cfg,
		logger:    logger,
		segmenter: segment.New(b.cfg.Segmenter),
		engine:    ocr.NewEngine(logger),
	}, nil
}

// Close releases the recognition engine.
func (p *Pipeline) Close() error {
	if p.engine == nil {
		return nil
	}
	err := p.engine.Close()
	p.engine = nil
	return err
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Options override configured settings for a single call.
type Options struct {
	// Lang overrides the configured language when non-empty.
	Lang string
	// Enrich overrides the configured enrichment toggle when non-nil.
	Enrich *bool
}

// ProcessImage extracts contact records from one photo. Decode failure is
// the only error; downstream stage failures degrade to empty or
// low-confidence records instead.
func (p *Pipeline) ProcessImage(data []byte) ([]contact.Record, error) {
	return p.processWith(p.engine, data, Options{})
}

// ProcessImageWithOptions is ProcessImage with per-call overrides.
func (p *Pipeline) ProcessImageWithOptions(data []byte, opts Options) ([]contact.Record, error) {
	return p.processWith(p.engine, data, opts)
}

func (p *Pipeline) processWith(engine *ocr.Engine, data []byte, opts Options) ([]contact.Record, error) {
	lang := p.cfg.Lang
	if opts.Lang != "" {
		lang = opts.Lang
	}
	enrichRecords := p.cfg.Enrich
	if opts.Enrich != nil {
		enrichRecords = *opts.Enrich
	}

	img, err := imgio.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	mat, err := imgio.ToMat(img)
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	defer mat.Close()

	crops := p.segmenter.Segment(mat)
	defer segment.CloseAll(crops)
	p.logger.Debug("cards segmented", "count", len(crops))

	records := make([]contact.Record, 0, len(crops))
	for i := range crops {
		result := engine.Recognize(crops[i].Mat, lang)
		confidence := result.Confidence
		record := resolve.Resolve(result.Text, &confidence)
		if enrichRecords {
			record = enrich.Enrich(record)
		}
		p.logger.Debug("card resolved",
			"card", i, "confidence", confidence, "empty", record.IsEmpty())
		records = append(records, record)
	}
	return records, nil
}
