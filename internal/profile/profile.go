package profile

import (
	"sort"

	"github.com/disintegration/imaging"
)

// Profile defines how a source image is prepared before PMB encoding.
// PMB stores one text line per pixel, so large sources are usually
// downscaled first.
type Profile struct {
	Name      string
	MaxWidth  int // 0 = unbounded
	MaxHeight int // 0 = unbounded
	Filter    string
}

// Default is used when no profile is requested.
const Default = "original"

// Built-in profiles.
var profiles = map[string]Profile{
	"original": {
		Name: "original",
	},
	"preview": {
		Name:      "preview",
		MaxWidth:  320,
		MaxHeight: 320,
		Filter:    "lanczos",
	},
	"thumbnail": {
		Name:      "thumbnail",
		MaxWidth:  64,
		MaxHeight: 64,
		Filter:    "box",
	},
	"pixel-art": {
		Name:      "pixel-art",
		MaxWidth:  128,
		MaxHeight: 128,
		Filter:    "nearest",
	},
}

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

// Get returns a profile by name. Falls back to the default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[Default]
	p.Name = name // preserve requested name
	return p
}

// Known reports whether name is a built-in profile.
func Known(name string) bool {
	_, ok := profiles[name]
	return ok
}

// Names lists the built-in profiles in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resample returns the imaging filter for the profile, Lanczos if unset.
func (p Profile) Resample() imaging.ResampleFilter {
	if f, ok := filters[p.Filter]; ok {
		return f
	}
	return imaging.Lanczos
}

// Fit returns the dimensions a w×h source should be encoded at, keeping
// the aspect ratio and never upscaling. The bool is false when the source
// already fits.
func (p Profile) Fit(w, h int) (int, int, bool) {
	if w <= 0 || h <= 0 {
		return w, h, false
	}
	scale := 1.0
	if p.MaxWidth > 0 && w > p.MaxWidth {
		scale = float64(p.MaxWidth) / float64(w)
	}
	if p.MaxHeight > 0 && h > p.MaxHeight {
		if s := float64(p.MaxHeight) / float64(h); s < scale {
			scale = s
		}
	}
	if scale >= 1 {
		return w, h, false
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh, true
}
