package pmb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Decoded is the result of reading a PMB document.
type Decoded struct {
	Stem   string
	Raster Raster
}

// MaxDecodePixels bounds width*height read from a header so a corrupt file
// cannot request an absurd allocation. Sides are unbounded individually.
const MaxDecodePixels = 1 << 28

// Decode reads a PMB document strictly: the row markers must agree with the
// header width and exactly width*height pixel lines must follow. Alpha is
// set to 255 for every pixel.
func Decode(r io.Reader) (*Decoded, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return strings.TrimSuffix(sc.Text(), "\r"), true
	}

	stem, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, malformed(1, "missing stem line")
	}

	header, ok := next()
	if !ok {
		return nil, malformed(2, "missing dimensions line")
	}
	w, h, err := parseDimensions(header)
	if err != nil {
		return nil, malformed(2, err.Error())
	}

	pix := make([]uint8, 0, min(w*h*4, 1<<24))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			text, ok := next()
			if !ok {
				if err := sc.Err(); err != nil {
					return nil, fmt.Errorf("read: %w", err)
				}
				return nil, malformed(line+1, fmt.Sprintf("unexpected end of data at pixel (%d, %d)", x, y))
			}
			body, marked := strings.CutSuffix(text, string(RowMarker))
			if last := x == w-1; marked != last {
				if last {
					return nil, malformed(line, "missing row marker")
				}
				return nil, malformed(line, fmt.Sprintf("row marker after %d of %d pixels", x+1, w))
			}
			red, green, blue, err := parsePixel(body)
			if err != nil {
				return nil, malformed(line, err.Error())
			}
			pix = append(pix, red, green, blue, 0xff)
		}
	}

	for {
		text, ok := next()
		if !ok {
			break
		}
		if strings.TrimSpace(text) != "" {
			return nil, malformed(line, "trailing data after last row")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return &Decoded{
		Stem:   stem,
		Raster: Raster{Width: w, Height: h, Pix: pix},
	}, nil
}

func malformed(line int, msg string) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformed, line, msg)
}

func parseDimensions(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("dimensions %q: want <width>,<height>", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil {
		return 0, 0, fmt.Errorf("width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, 0, fmt.Errorf("height: %w", err)
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("dimensions %dx%d out of range", w, h)
	}
	if w > MaxDecodePixels/h {
		return 0, 0, fmt.Errorf("dimensions %dx%d exceed %d pixels", w, h, MaxDecodePixels)
	}
	return w, h, nil
}

func parsePixel(s string) (red, green, blue uint8, err error) {
	inner, ok := strings.CutPrefix(s, "(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	if !ok {
		return 0, 0, 0, fmt.Errorf("pixel %q: want (r, g, b)", s)
	}
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("pixel %q: want 3 channels, got %d", s, len(parts))
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("pixel %q: channel %d: %w", s, i, err)
		}
		ch[i] = uint8(v)
	}
	return ch[0], ch[1], ch[2], nil
}
