// Package raster turns compressed images into pmb.Raster values and back.
//
// Decoding mirrors what a browser canvas hands out from getImageData:
// non-premultiplied 8-bit RGBA, origin at the top-left corner.
package raster

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/AnyUserName/pmb-cli/internal/pmb"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage reads a compressed image of any registered format and
// returns it normalised to NRGBA, along with the format name reported by
// the decoder. Callers may resize it before calling FromImage.
func DecodeImage(r io.Reader) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return imaging.Clone(img), format, nil
}

// FromImage converts any image to a raster with tightly packed rows.
func FromImage(img image.Image) pmb.Raster {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = imaging.Clone(img)
	}
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	rowLen := w * 4

	pix := make([]uint8, w*h*4)
	if nrgba.Stride == rowLen {
		copy(pix, nrgba.Pix[:rowLen*h])
	} else {
		for y := 0; y < h; y++ {
			copy(pix[y*rowLen:(y+1)*rowLen], nrgba.Pix[y*nrgba.Stride:])
		}
	}
	return pmb.Raster{Width: w, Height: h, Pix: pix}
}

// ToImage wraps a raster's samples as an NRGBA image without copying.
func ToImage(r pmb.Raster) *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// HasAlpha reports whether any pixel is not fully opaque.
func HasAlpha(r pmb.Raster) bool {
	for i := 3; i < len(r.Pix); i += 4 {
		if r.Pix[i] != 0xff {
			return true
		}
	}
	return false
}
