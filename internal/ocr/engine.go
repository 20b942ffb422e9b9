// Package ocr recognizes text in card crops with Tesseract. Each crop is
// deskewed, run through several preprocessing variants and page segmentation
// modes, and the plausibility-scored best result wins.
package ocr

import (
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"cardscan/internal/imgio"
)

// DefaultLang is the Tesseract language used when none is configured.
// Multiple languages are space-separated, e.g. "eng deu".
const DefaultLang = "eng"

// charWhitelist restricts recognition to characters that appear on business
// cards; the auto and raw-line modes run unrestricted.
const charWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@.-+()#&, "

// fallbackThreshold triggers one plain un-enhanced pass when every scored
// attempt stays below it.
const fallbackThreshold = 0.3

type segMode struct {
	name      string
	psm       gosseract.PageSegMode
	whitelist string
}

var segModes = []segMode{
	{"single-block", gosseract.PSM_SINGLE_BLOCK, charWhitelist},
	{"sparse-text", gosseract.PSM_SPARSE_TEXT, charWhitelist},
	{"single-word", gosseract.PSM_SINGLE_WORD, charWhitelist},
	{"auto", gosseract.PSM_AUTO, ""},
	{"raw-line", gosseract.PSM_RAW_LINE, ""},
}

// Engine wraps one Tesseract client. It is not safe for concurrent use;
// parallel callers create one Engine per worker.
type Engine struct {
	client *gosseract.Client
	logger *slog.Logger
}

// NewEngine creates a recognition engine. The caller must Close it.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client: gosseract.NewClient(),
		logger: logger,
	}
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Recognize runs the multi-pass recognition over a BGR crop. Failures of
// individual passes are swallowed; when every pass fails the zero Result is
// returned.
func (e *Engine) Recognize(crop gocv.Mat, lang string) Result {
	if crop.Empty() {
		return Result{}
	}
	if lang == "" {
		lang = DefaultLang
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	deskewed := deskew(gray)
	defer deskewed.Close()

	variants := enhanceVariants(deskewed)
	defer closeMats(variants)

	var candidates []Result
	for i, variant := range variants {
		png, err := imgio.EncodePNG(variant)
		if err != nil {
			e.logger.Debug("variant encode failed", "variant", i, "error", err)
			continue
		}
		for _, mode := range segModes {
			text, err := e.recognizeOnce(png, lang, mode)
			if err != nil {
				e.logger.Debug("recognition attempt failed",
					"variant", i, "mode", mode.name, "error", err)
				continue
			}
			candidates = append(candidates, Result{Text: text, Confidence: Score(text)})
		}
	}
	best := bestResult(candidates)

	if best.Confidence < fallbackThreshold {
		if plain := e.plainPass(deskewed, lang); plain.Confidence > best.Confidence {
			best = plain
		}
	}

	e.logger.Debug("recognition finished",
		"chars", len(strings.TrimSpace(best.Text)), "confidence", best.Confidence)
	return best
}

func (e *Engine) recognizeOnce(png []byte, lang string, mode segMode) (string, error) {
	if err := e.client.SetLanguage(strings.Fields(lang)...); err != nil {
		return "", err
	}
	if err := e.client.SetPageSegMode(mode.psm); err != nil {
		return "", err
	}
	if err := e.client.SetWhitelist(mode.whitelist); err != nil {
		return "", err
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", err
	}
	return e.client.Text()
}

// plainPass runs one recognition on the un-enhanced grayscale with default
// settings.
func (e *Engine) plainPass(gray gocv.Mat, lang string) Result {
	png, err := imgio.EncodePNG(gray)
	if err != nil {
		return Result{}
	}
	text, err := e.recognizeOnce(png, lang, segMode{name: "plain", psm: gosseract.PSM_AUTO})
	if err != nil {
		e.logger.Debug("fallback recognition failed", "error", err)
		return Result{}
	}
	return Result{Text: text, Confidence: Score(text)}
}

// deskew straightens the crop by the minimum-area-rectangle angle of its
// foreground pixels, normalized to [-45, 45] so a near-upright crop gets at
// most a small correction.
func deskew(gray gocv.Mat) gocv.Mat {
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, 0, 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(bin, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	var points []image.Point
	for i := 0; i < contours.Size(); i++ {
		points = append(points, contours.At(i).ToPoints()...)
	}
	if len(points) < 3 {
		return gray.Clone()
	}

	pv := gocv.NewPointVectorFromPoints(points)
	defer pv.Close()
	angle := gocv.MinAreaRect(pv).Angle
	for angle > 45 {
		angle -= 90
	}
	for angle < -45 {
		angle += 90
	}

	center := image.Pt(gray.Cols()/2, gray.Rows()/2)
	rotation := gocv.GetRotationMatrix2D(center, angle, 1.0)
	defer rotation.Close()

	out := gocv.NewMat()
	gocv.WarpAffineWithParams(gray, &out, rotation, image.Pt(gray.Cols(), gray.Rows()),
		gocv.InterpolationCubic, gocv.BorderReplicate, color.RGBA{})
	return out
}
