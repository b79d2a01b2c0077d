package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxDimension = 1920
	JPEGQuality  = 80
	// MaxPixels bounds the bitmap a decode may allocate.
	MaxPixels = 50_000_000
)

var ErrCompress = errors.New("upload: compress image")

// Compress re-encodes an image as JPEG at JPEGQuality, scaling it down so its
// longer side is MaxDimension when it exceeds that. Images already within
// bounds keep their dimensions. On failure the caller should upload the
// original file instead.
func Compress(f File) (File, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: decode config %s: %v", ErrCompress, f.Name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return File{}, fmt.Errorf("%w: %s has no pixels", ErrCompress, f.Name)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return File{}, fmt.Errorf("%w: %s is %dx%d, over %d pixels", ErrCompress, f.Name, cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: decode %s: %v", ErrCompress, f.Name, err)
	}

	b := src.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy())
	if w <= 0 || h <= 0 {
		return File{}, fmt.Errorf("%w: %s has no pixels", ErrCompress, f.Name)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white like a canvas export would.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return File{}, fmt.Errorf("%w: encode %s: %v", ErrCompress, f.Name, err)
	}

	return File{
		Name:        f.Name,
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

// TargetSize scales (w, h) so the longer side is MaxDimension, keeping the
// aspect ratio. Sizes within bounds are returned unchanged.
func TargetSize(w, h int) (int, int) {
	if w <= MaxDimension && h <= MaxDimension {
		return w, h
	}
	if w > h {
		return MaxDimension, int(math.Round(float64(h) * MaxDimension / float64(w)))
	}
	return int(math.Round(float64(w) * MaxDimension / float64(h))), MaxDimension
}
