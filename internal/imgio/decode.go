// Package imgio decodes photo bytes into normalized in-memory images.
// Camera photos routinely arrive rotated with only an EXIF orientation tag
// recording the true orientation, so decoding applies the tag before any
// downstream geometry runs.
package imgio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// DecodeError reports a failure while decoding or normalizing input bytes.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("image decode error in %s: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SupportedExtensions lists the file extensions accepted for loading.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Decode decodes JPEG, PNG, or BMP bytes and applies any JPEG EXIF
// orientation so the returned image is upright.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Operation: "decode", Err: errors.New("empty input")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Operation: "decode", Err: err}
	}
	if format == "jpeg" {
		if o := exifOrientation(data); o > 1 {
			img = applyOrientation(img, o)
		}
	}
	return img, nil
}

// applyOrientation maps the eight EXIF orientation values onto flips and
// rotations. Rotations here are counter-clockwise, so tag 6 (stored image
// needs a 90° clockwise turn) maps to Rotate270.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

const (
	markerSOI      = 0xD8
	markerAPP1     = 0xE1
	markerSOS      = 0xDA
	tagOrientation = 0x0112
)

// exifOrientation walks the JPEG segment stream looking for an APP1 Exif
// block and returns its orientation tag, or 0 when absent or malformed.
// Only the IFD0 entries are scanned; a bad offset simply means no tag.
func exifOrientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return 0
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return 0
		}
		marker := data[i+1]
		if marker == markerSOS {
			return 0
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return 0
		}
		if marker == markerAPP1 {
			return parseExifBlock(data[i+4 : i+2+length])
		}
		i += 2 + length
	}
	return 0
}

func parseExifBlock(block []byte) int {
	if len(block) < 14 || !bytes.HasPrefix(block, []byte("Exif\x00\x00")) {
		return 0
	}
	tiff := block[6:]
	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(tiff, []byte("II")):
		order = binary.LittleEndian
	case bytes.HasPrefix(tiff, []byte("MM")):
		order = binary.BigEndian
	default:
		return 0
	}
	if order.Uint16(tiff[2:4]) != 0x002A {
		return 0
	}
	ifd := int(order.Uint32(tiff[4:8]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return 0
	}
	count := int(order.Uint16(tiff[ifd : ifd+2]))
	for n := 0; n < count; n++ {
		entry := ifd + 2 + n*12
		if entry+12 > len(tiff) {
			return 0
		}
		if order.Uint16(tiff[entry:entry+2]) == tagOrientation {
			v := int(order.Uint16(tiff[entry+8 : entry+10]))
			if v >= 1 && v <= 8 {
				return v
			}
			return 0
		}
	}
	return 0
}
