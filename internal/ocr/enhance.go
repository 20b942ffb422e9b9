package ocr

import (
	"image"

	"gocv.io/x/gocv"
)

// enhanceVariants produces the grayscale preprocessing variants each
// recognition pass runs over. Cards differ too much (glossy stock, low
// contrast, noisy phone shots) for a single preprocessing choice to win
// everywhere, so all variants are tried and scoring picks the winner.
func enhanceVariants(gray gocv.Mat) []gocv.Mat {
	variants := make([]gocv.Mat, 0, 5)
	variants = append(variants, claheSharpen(gray))
	variants = append(variants, claheStrong(gray))
	variants = append(variants, blurUnsharp(gray))
	variants = append(variants, morphClose(gray))
	variants = append(variants, bilateral(gray))
	return variants
}

func closeMats(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}

// claheSharpen: contrast-limited equalization, a sharpening convolution,
// then a median blur to knock down the speckle sharpening amplifies.
func claheSharpen(gray gocv.Mat) gocv.Mat {
	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(gray, &equalized)

	sharpened := gocv.NewMat()
	defer sharpened.Close()
	applyKernel(equalized, &sharpened, 9)

	out := gocv.NewMat()
	gocv.MedianBlur(sharpened, &out, 3)
	return out
}

// claheStrong: heavier equalization with smaller tiles for low-contrast cards.
func claheStrong(gray gocv.Mat) gocv.Mat {
	clahe := gocv.NewCLAHEWithParams(3.0, image.Pt(4, 4))
	defer clahe.Close()
	out := gocv.NewMat()
	clahe.Apply(gray, &out)
	return out
}

// blurUnsharp: light Gaussian blur followed by an aggressive unsharp kernel,
// for noisy captures.
func blurUnsharp(gray gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)

	out := gocv.NewMat()
	applyKernel(blurred, &out, 12)
	return out
}

// morphClose: a 1x1 closing, near-identity but it regularizes stray pixels
// in thin strokes.
func morphClose(gray gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(1, 1))
	defer kernel.Close()
	out := gocv.NewMat()
	gocv.MorphologyEx(gray, &out, gocv.MorphClose, kernel)
	return out
}

// bilateral: edge-preserving smoothing.
func bilateral(gray gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.BilateralFilter(gray, &out, 9, 75, 75)
	return out
}

// applyKernel convolves with a 3x3 kernel of -1s around the given center
// weight (9 sharpens, 12 over-sharpens for the unsharp variant).
func applyKernel(src gocv.Mat, dst *gocv.Mat, center float32) {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			kernel.SetFloatAt(y, x, -1)
		}
	}
	kernel.SetFloatAt(1, 1, center)
	gocv.Filter2D(src, dst, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
}
