// Package testutil generates synthetic business-card photos for tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardConfig describes a synthetic card photo: a light card rectangle with
// text lines, centered on a darker background canvas.
type CardConfig struct {
	Lines      []string
	CardWidth  int
	CardHeight int
	CanvasW    int
	CanvasH    int
	Rotation   float64 // degrees, applied to the whole canvas
}

// DefaultCardConfig returns a landscape card on a desk-like background.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Lines: []string{
			"John Smith",
			"Chief Executive Officer",
			"Acme Corporation",
			"john.smith@acme.example",
			"(555) 123-4567",
		},
		CardWidth:  350,
		CardHeight: 200,
		CanvasW:    700,
		CanvasH:    500,
	}
}

// GenerateCard renders the configured card photo.
func GenerateCard(cfg CardConfig) image.Image {
	canvas := image.NewRGBA(image.Rect(0, 0, cfg.CanvasW, cfg.CanvasH))
	background := color.RGBA{70, 70, 70, 255}
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	cardRect := image.Rect(0, 0, cfg.CardWidth, cfg.CardHeight).
		Add(image.Pt((cfg.CanvasW-cfg.CardWidth)/2, (cfg.CanvasH-cfg.CardHeight)/2))
	draw.Draw(canvas, cardRect, &image.Uniform{color.White}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  &image.Uniform{color.Black},
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil() + 6
	y := cardRect.Min.Y + 30
	for _, line := range cfg.Lines {
		drawer.Dot = fixed.P(cardRect.Min.X+20, y)
		drawer.DrawString(line)
		y += lineHeight
	}

	if cfg.Rotation != 0 {
		rotated := imaging.Rotate(canvas, cfg.Rotation, background)
		rgba := image.NewRGBA(rotated.Bounds())
		draw.Draw(rgba, rgba.Bounds(), rotated, rotated.Bounds().Min, draw.Src)
		return rgba
	}
	return canvas
}

// CardPNG renders the card photo and encodes it as PNG.
func CardPNG(cfg CardConfig) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, GenerateCard(cfg)); err != nil {
		return nil, fmt.Errorf("encoding card image: %w", err)
	}
	return buf.Bytes(), nil
}
