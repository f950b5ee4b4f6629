// Package pmb implements the PMB plain-text pixel format.
//
// A PMB payload is line oriented:
//
//	<stem>
//	<width>,<height>
//	(r, g, b)
//	(r, g, b)N
//
// One line per pixel in row-major order; the line of the last pixel in each
// row carries a trailing N. Alpha is not stored.
package pmb

import (
	"errors"
	"fmt"
	"strings"
)

// Extension is the file extension of PMB documents, including the dot.
const Extension = ".pmb"

// RowMarker terminates the last pixel line of every row.
const RowMarker = 'N'

var (
	// ErrInvalidRaster is matched by every *InvalidRasterError.
	ErrInvalidRaster = errors.New("pmb: invalid raster")
	// ErrMalformed is wrapped by every decode error.
	ErrMalformed = errors.New("pmb: malformed document")
)

// InvalidRasterError reports a pixel buffer inconsistent with its declared
// dimensions.
type InvalidRasterError struct {
	Width, Height int
	Len           int
}

func (e *InvalidRasterError) Error() string {
	if e.Width < 1 || e.Height < 1 {
		return fmt.Sprintf("pmb: invalid raster dimensions %dx%d", e.Width, e.Height)
	}
	return fmt.Sprintf("pmb: invalid raster: %d bytes do not hold %dx%d RGBA pixels",
		e.Len, e.Width, e.Height)
}

func (e *InvalidRasterError) Is(target error) bool { return target == ErrInvalidRaster }

// Raster is a decoded image: non-premultiplied 8-bit RGBA samples in
// row-major order starting at the top-left pixel.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// Validate checks that Pix holds exactly Width*Height*4 samples. The
// check divides the buffer length instead of multiplying the dimensions,
// so huge dimensions cannot wrap around to a matching length.
func (r Raster) Validate() error {
	if r.Width < 1 || r.Height < 1 {
		return &InvalidRasterError{Width: r.Width, Height: r.Height, Len: len(r.Pix)}
	}
	n := len(r.Pix)
	if n%4 != 0 || (n/4)%r.Width != 0 || n/4/r.Width != r.Height {
		return &InvalidRasterError{Width: r.Width, Height: r.Height, Len: n}
	}
	return nil
}

// At returns the RGBA samples of pixel (x, y).
func (r Raster) At(x, y int) (red, green, blue, alpha uint8) {
	i := (y*r.Width + x) * 4
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3]
}

// Document is an encoded PMB payload together with its suggested file name.
type Document struct {
	FileName string
	Content  string
	Width    int
	Height   int
}

// Stem returns the file name without the .pmb extension. It is also the
// first line of Content.
func (d Document) Stem() string {
	return strings.TrimSuffix(d.FileName, Extension)
}

// Token returns the identifier token embedded in the stem.
func (d Document) Token() string {
	stem := d.Stem()
	if i := strings.LastIndexByte(stem, '_'); i >= 0 {
		return stem[i+1:]
	}
	return ""
}

// BaseName strips the final dot-separated segment of name. A name without
// a dot is returned unchanged; "" stays "".
func BaseName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name
	}
	return name[:i]
}
