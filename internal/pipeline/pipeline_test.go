package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardscan/internal/segment"
	"cardscan/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "eng", cfg.Lang)
	assert.True(t, cfg.Enrich)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, segment.DefaultConfig(), cfg.Segmenter)
}

func TestBuilderOptions(t *testing.T) {
	seg := segment.DefaultConfig()
	seg.MaxCards = 1

	cfg := NewBuilder().
		WithLanguage("eng deu").
		WithEnrichment(false).
		WithWorkers(3).
		WithSegmenterConfig(seg).
		Config()

	assert.Equal(t, "eng deu", cfg.Lang)
	assert.False(t, cfg.Enrich)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 1, cfg.Segmenter.MaxCards)
}

func TestBuilderIgnoresEmptyLanguage(t *testing.T) {
	cfg := NewBuilder().WithLanguage("").Config()
	assert.Equal(t, "eng", cfg.Lang)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewBuilder().Validate())

	b := NewBuilder()
	b.cfg.Lang = "   "
	assert.Error(t, b.Validate())

	seg := segment.DefaultConfig()
	seg.MaxAreaRatio = seg.MinAreaRatio
	assert.Error(t, NewBuilder().WithSegmenterConfig(seg).Validate())

	seg = segment.DefaultConfig()
	seg.MaxCards = 0
	assert.Error(t, NewBuilder().WithSegmenterConfig(seg).Validate())
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 250))
	for y := 0; y < 250; y++ {
		for x := 0; x < 400; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImage(t *testing.T) {
	p, err := NewBuilder().Build()
	require.NoError(t, err)
	defer p.Close()

	records, err := p.ProcessImage(testImage(t))
	require.NoError(t, err)
	assert.NotEmpty(t, records) // segmentation always yields at least one crop
}

func TestProcessImageSyntheticCard(t *testing.T) {
	data, err := testutil.CardPNG(testutil.DefaultCardConfig())
	require.NoError(t, err)

	p, err := NewBuilder().Build()
	require.NoError(t, err)
	defer p.Close()

	records, err := p.ProcessImage(data)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, rec := range records {
		if rec.OCRConfidence != nil {
			assert.GreaterOrEqual(t, *rec.OCRConfidence, 0.0)
			assert.LessOrEqual(t, *rec.OCRConfidence, 1.0)
		}
	}
}

func TestProcessImageDecodeError(t *testing.T) {
	p, err := NewBuilder().Build()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ProcessImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestProcessImagesMixedBatch(t *testing.T) {
	p, err := NewBuilder().WithWorkers(2).Build()
	require.NoError(t, err)
	defer p.Close()

	images := [][]byte{testImage(t), []byte("garbage"), testImage(t)}
	results, err := p.ProcessImages(context.Background(), images)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}

func TestProcessImagesEmpty(t *testing.T) {
	p, err := NewBuilder().Build()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ProcessImages(context.Background(), nil)
	assert.Error(t, err)
}

func TestProcessImagesSequentialProgress(t *testing.T) {
	var calls []int
	p, err := NewBuilder().
		WithWorkers(1).
		WithProgress(func(done, total int) { calls = append(calls, done) }).
		Build()
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ProcessImages(context.Background(), [][]byte{testImage(t), testImage(t)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestProcessImagesCancelledContext(t *testing.T) {
	p, err := NewBuilder().WithWorkers(1).Build()
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.ProcessImages(ctx, [][]byte{testImage(t)})
	assert.ErrorIs(t, err, context.Canceled)
}
