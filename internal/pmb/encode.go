package pmb

import (
	"io"
	"strconv"
	"strings"
)

// maxPixelLen is the longest pixel line: "(255, 255, 255)N\n".
const maxPixelLen = 17

// Encode converts r into a PMB document named after sourceName.
//
// The stem is BaseName(sourceName) followed by "_" and a fresh token, so
// repeated conversions of the same source do not collide. Encode has no
// side effects other than drawing the token.
func Encode(r Raster, sourceName string) (Document, error) {
	if err := r.Validate(); err != nil {
		return Document{}, err
	}
	stem := NewStem(sourceName)

	var sb strings.Builder
	sb.Grow(len(stem) + 24 + len(r.Pix)/4*maxPixelLen)
	if err := encodeBody(&sb, r, stem); err != nil {
		return Document{}, err
	}
	return Document{
		FileName: stem + Extension,
		Content:  sb.String(),
		Width:    r.Width,
		Height:   r.Height,
	}, nil
}

// NewStem derives an output stem from sourceName: its base name, an
// underscore and a fresh token.
func NewStem(sourceName string) string {
	return BaseName(sourceName) + "_" + NewToken()
}

// EncodeTo writes the PMB payload of r to w using stem as the first line.
// Output is byte-identical to Document.Content for the same stem.
func EncodeTo(w io.Writer, r Raster, stem string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return encodeBody(w, r, stem)
}

// encodeBody emits the header and then one buffered write per image row.
func encodeBody(w io.Writer, r Raster, stem string) error {
	buf := make([]byte, 0, max(len(stem)+24, r.Width*maxPixelLen))

	buf = append(buf, stem...)
	buf = append(buf, '\n')
	buf = strconv.AppendInt(buf, int64(r.Width), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(r.Height), 10)
	buf = append(buf, '\n')
	if _, err := w.Write(buf); err != nil {
		return err
	}

	pix := r.Pix
	for y := 0; y < r.Height; y++ {
		buf = buf[:0]
		row := pix[y*r.Width*4 : (y+1)*r.Width*4]
		for x := 0; x < r.Width; x++ {
			buf = appendPixel(buf, row[x*4], row[x*4+1], row[x*4+2])
			if x == r.Width-1 {
				buf = append(buf, RowMarker)
			}
			buf = append(buf, '\n')
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func appendPixel(buf []byte, red, green, blue uint8) []byte {
	buf = append(buf, '(')
	buf = strconv.AppendUint(buf, uint64(red), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(green), 10)
	buf = append(buf, ',', ' ')
	buf = strconv.AppendUint(buf, uint64(blue), 10)
	return append(buf, ')')
}
