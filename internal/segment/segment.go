// Package segment locates business cards in a photo and returns
// perspective-corrected crops. Detection runs a strict contour pass first,
// retries with relaxed thresholds, and falls back to the full frame so a
// photo always yields at least one crop.
package segment

import (
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
)

// Crop is one candidate card region: the warped BGR Mat plus the axis-aligned
// rectangle it came from in the source image. The caller owns the Mat and
// must Close it.
type Crop struct {
	Mat  gocv.Mat
	Rect image.Rectangle
}

// Close releases the crop's Mat.
func (c *Crop) Close() {
	if !c.Mat.Empty() {
		c.Mat.Close()
	}
}

// CloseAll releases every crop in the slice.
func CloseAll(crops []Crop) {
	for i := range crops {
		crops[i].Close()
	}
}

// Config holds the detection thresholds. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// Contour area as a fraction of the image, strict pass.
	MinAreaRatio float64
	MaxAreaRatio float64
	// Relaxed retry bounds.
	RelaxedMinAreaRatio float64
	RelaxedMaxAreaRatio float64
	// Contour area divided by its convex hull area.
	MinSolidity float64
	// Relative tolerance against the reference card aspect ratios, for the
	// contour filter and the post-warp check respectively.
	AspectTolerance     float64
	WarpAspectTolerance float64
	// Candidate and output limits.
	MaxCandidates int
	MaxCards      int
	// Minimum warped crop edge in pixels, strict and relaxed.
	MinCropSize        int
	RelaxedMinCropSize int
}

// DefaultConfig returns the tuned detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinAreaRatio:        0.015,
		MaxAreaRatio:        0.6,
		RelaxedMinAreaRatio: 0.05,
		RelaxedMaxAreaRatio: 0.8,
		MinSolidity:         0.85,
		AspectTolerance:     0.25,
		WarpAspectTolerance: 0.35,
		MaxCandidates:       5,
		MaxCards:            3,
		MinCropSize:         100,
		RelaxedMinCropSize:  60,
	}
}

// Standard card aspect ratios: US business card, ISO ID-1, and the
// 89x56mm European card.
var cardAspects = []float64{1.75, 1.55, 1.59}

// Segmenter finds card-shaped regions in a BGR image.
type Segmenter struct {
	cfg Config
}

// New returns a Segmenter with the given configuration.
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// passParams are the per-pass contour filter settings.
type passParams struct {
	minAreaRatio float64
	maxAreaRatio float64
	epsilon      float64
	minVertices  int
	maxVertices  int
	checkShape   bool
	maxCount     int
	minCropSize  int
	checkAspect  bool
}

func (s *Segmenter) strictParams() passParams {
	return passParams{
		minAreaRatio: s.cfg.MinAreaRatio,
		maxAreaRatio: s.cfg.MaxAreaRatio,
		epsilon:      0.015,
		minVertices:  3,
		maxVertices:  6,
		checkShape:   true,
		maxCount:     s.cfg.MaxCandidates,
		minCropSize:  s.cfg.MinCropSize,
		checkAspect:  true,
	}
}

func (s *Segmenter) relaxedParams() passParams {
	return passParams{
		minAreaRatio: s.cfg.RelaxedMinAreaRatio,
		maxAreaRatio: s.cfg.RelaxedMaxAreaRatio,
		epsilon:      0.02,
		minVertices:  4,
		maxVertices:  0, // unbounded
		checkShape:   false,
		maxCount:     s.cfg.MaxCards,
		minCropSize:  s.cfg.RelaxedMinCropSize,
		checkAspect:  false,
	}
}

// Segment detects cards in the image. It never returns an empty slice for a
// non-empty image: when no contour survives either pass the full frame is
// returned as a single crop.
func (s *Segmenter) Segment(img gocv.Mat) []Crop {
	if img.Empty() {
		return nil
	}

	mask := cardMask(img)
	defer mask.Close()

	crops := s.cropPass(img, mask, s.strictParams())
	if len(crops) == 0 {
		crops = s.cropPass(img, mask, s.relaxedParams())
	}
	if len(crops) == 0 {
		crops = []Crop{{
			Mat:  img.Clone(),
			Rect: image.Rect(0, 0, img.Cols(), img.Rows()),
		}}
	}
	return s.dedupeBySize(crops)
}

// cardMask builds the binary mask card contours are extracted from: three
// complementary thresholds OR-combined, then morphology to seal card borders
// and drop speckle.
func cardMask(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.BilateralFilter(gray, &smooth, 9, 75, 75)

	adaptiveMean := gocv.NewMat()
	defer adaptiveMean.Close()
	gocv.AdaptiveThreshold(smooth, &adaptiveMean, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, 21, 8)

	adaptiveGauss := gocv.NewMat()
	defer adaptiveGauss.Close()
	gocv.AdaptiveThreshold(smooth, &adaptiveGauss, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 21, 8)

	otsu := gocv.NewMat()
	defer otsu.Close()
	gocv.Threshold(smooth, &otsu, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	mask := gocv.NewMat()
	gocv.BitwiseOr(adaptiveMean, adaptiveGauss, &mask)
	gocv.BitwiseOr(mask, otsu, &mask)

	closeKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer closeKernel.Close()
	gocv.MorphologyExWithParams(mask, &mask, gocv.MorphClose, closeKernel, 2, gocv.BorderConstant)

	openKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2, 2))
	defer openKernel.Close()
	gocv.MorphologyExWithParams(mask, &mask, gocv.MorphOpen, openKernel, 1, gocv.BorderConstant)

	return mask
}

type candidate struct {
	area float64
	rect gocv.RotatedRect
}

// cropPass extracts candidates from the mask under the pass parameters and
// warps the survivors.
func (s *Segmenter) cropPass(img, mask gocv.Mat, p passParams) []Crop {
	candidates := s.findCandidates(mask, p)

	// Largest first, bounded. An explicit sort keeps the selection a pure
	// function of the candidate set.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].area > candidates[j].area
	})
	if len(candidates) > p.maxCount {
		candidates = candidates[:p.maxCount]
	}

	crops := make([]Crop, 0, len(candidates))
	for _, c := range candidates {
		if crop, ok := s.warpCard(img, c.rect, p); ok {
			crops = append(crops, crop)
		}
	}
	return crops
}

func (s *Segmenter) findCandidates(mask gocv.Mat, p passParams) []candidate {
	imgArea := float64(mask.Cols() * mask.Rows())
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var candidates []candidate
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		area := gocv.ContourArea(pv)
		ratio := area / imgArea
		if ratio <= p.minAreaRatio || ratio >= p.maxAreaRatio {
			continue
		}

		perimeter := gocv.ArcLength(pv, true)
		approx := gocv.ApproxPolyDP(pv, p.epsilon*perimeter, true)
		vertices := approx.Size()
		approx.Close()
		if vertices < p.minVertices {
			continue
		}
		if p.maxVertices > 0 && vertices > p.maxVertices {
			continue
		}

		rect := gocv.MinAreaRect(pv)
		if p.checkShape {
			if !aspectNear(rectAspect(rect), s.cfg.AspectTolerance) {
				continue
			}
			if solidity(pv, area) < s.cfg.MinSolidity {
				continue
			}
		}
		candidates = append(candidates, candidate{area: area, rect: rect})
	}
	return candidates
}

// solidity is the contour area over its convex hull area.
func solidity(pv gocv.PointVector, area float64) float64 {
	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(pv, &hull, false, true)
	hullPv := gocv.NewPointVectorFromMat(hull)
	defer hullPv.Close()
	hullArea := gocv.ContourArea(hullPv)
	if hullArea <= 0 {
		return 0
	}
	return area / hullArea
}

func rectAspect(rect gocv.RotatedRect) float64 {
	w := float64(rect.Width)
	h := float64(rect.Height)
	if w <= 0 || h <= 0 {
		return 0
	}
	return math.Max(w, h) / math.Min(w, h)
}

// aspectNear reports whether the ratio is within the relative tolerance of
// any reference card aspect.
func aspectNear(aspect float64, tolerance float64) bool {
	if aspect <= 0 {
		return false
	}
	for _, ref := range cardAspects {
		if math.Abs(aspect-ref)/ref <= tolerance {
			return true
		}
	}
	return false
}

// warpCard perspective-corrects one rotated rectangle into an upright crop.
func (s *Segmenter) warpCard(img gocv.Mat, rect gocv.RotatedRect, p passParams) (Crop, bool) {
	corners := rectCorners(rect)
	tl, tr, br, bl := orderCorners(corners)

	// Output size from the measured edges, not the rect fields, so a tilted
	// card keeps its true proportions after the warp.
	width := int(math.Round(math.Max(dist(tl, tr), dist(bl, br))))
	height := int(math.Round(math.Max(dist(tl, bl), dist(tr, br))))
	if width < p.minCropSize || height < p.minCropSize {
		return Crop{}, false
	}
	if p.checkAspect {
		aspect := float64(max(width, height)) / float64(min(width, height))
		if !aspectNear(aspect, s.cfg.WarpAspectTolerance) {
			return Crop{}, false
		}
	}

	src := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{tl, tr, br, bl})
	defer src.Close()
	dst := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: float32(width - 1), Y: 0},
		{X: float32(width - 1), Y: float32(height - 1)},
		{X: 0, Y: float32(height - 1)},
	})
	defer dst.Close()

	m := gocv.GetPerspectiveTransform2f(src, dst)
	defer m.Close()

	out := gocv.NewMat()
	gocv.WarpPerspective(img, &out, m, image.Pt(width, height))
	return Crop{Mat: out, Rect: cornerBounds(corners, img.Cols(), img.Rows())}, true
}

// rectCorners computes the four vertices of a rotated rectangle from its
// center, size, and angle.
func rectCorners(rect gocv.RotatedRect) [4]gocv.Point2f {
	cx := float64(rect.Center.X)
	cy := float64(rect.Center.Y)
	hw := float64(rect.Width) / 2
	hh := float64(rect.Height) / 2
	angle := rect.Angle * math.Pi / 180
	cos := math.Cos(angle)
	sin := math.Sin(angle)

	var corners [4]gocv.Point2f
	offsets := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	for i, o := range offsets {
		corners[i] = gocv.Point2f{
			X: float32(cx + o[0]*cos - o[1]*sin),
			Y: float32(cy + o[0]*sin + o[1]*cos),
		}
	}
	return corners
}

// orderCorners arranges four points as top-left, top-right, bottom-right,
// bottom-left using the coordinate sum and difference.
func orderCorners(corners [4]gocv.Point2f) (tl, tr, br, bl gocv.Point2f) {
	tl, tr, br, bl = corners[0], corners[0], corners[0], corners[0]
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		sum := float64(c.X) + float64(c.Y)
		diff := float64(c.Y) - float64(c.X)
		if sum < minSum {
			minSum, tl = sum, c
		}
		if sum > maxSum {
			maxSum, br = sum, c
		}
		if diff < minDiff {
			minDiff, tr = diff, c
		}
		if diff > maxDiff {
			maxDiff, bl = diff, c
		}
	}
	return tl, tr, br, bl
}

func dist(a, b gocv.Point2f) float64 {
	dx := float64(a.X) - float64(b.X)
	dy := float64(a.Y) - float64(b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// cornerBounds is the axis-aligned bounding box of the corners, clamped to
// the image.
func cornerBounds(corners [4]gocv.Point2f, cols, rows int) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		minX = math.Min(minX, float64(c.X))
		minY = math.Min(minY, float64(c.Y))
		maxX = math.Max(maxX, float64(c.X))
		maxY = math.Max(maxY, float64(c.Y))
	}
	r := image.Rect(int(minX), int(minY), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	return r.Intersect(image.Rect(0, 0, cols, rows))
}

// dedupeBySize drops crops whose area is within 0.8x-1.2x of an
// already-kept crop (duplicate detections of the same card at slightly
// different contours) and caps the result.
func (s *Segmenter) dedupeBySize(crops []Crop) []Crop {
	kept := make([]Crop, 0, len(crops))
	for i := range crops {
		crop := crops[i]
		if len(kept) >= s.cfg.MaxCards {
			crop.Close()
			continue
		}
		area := float64(crop.Mat.Cols() * crop.Mat.Rows())
		duplicate := false
		for _, k := range kept {
			keptArea := float64(k.Mat.Cols() * k.Mat.Rows())
			if keptArea > 0 {
				ratio := area / keptArea
				if ratio >= 0.8 && ratio <= 1.2 {
					duplicate = true
					break
				}
			}
		}
		if duplicate {
			crop.Close()
			continue
		}
		kept = append(kept, crop)
	}
	return kept
}
