package imgio

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

var errNilImage = errors.New("nil image")

// ToMat converts a decoded image into a BGR Mat for the geometry and OCR
// stages. The caller owns the returned Mat and must Close it.
func ToMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.NewMat(), &DecodeError{Operation: "to-mat", Err: errNilImage}
	}
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), &DecodeError{Operation: "to-mat", Err: err}
	}
	defer rgb.Close()
	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorBGRToRGB)
	return bgr, nil
}

// EncodePNG serializes a Mat as PNG bytes, the format handed to the OCR
// engine.
func EncodePNG(m gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, m)
	if err != nil {
		return nil, &DecodeError{Operation: "encode-png", Err: err}
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
