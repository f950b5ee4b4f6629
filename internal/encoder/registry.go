package encoder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Registry maps format names and extension aliases to encoders.
type Registry struct {
	encoders map[string]Encoder
	order    []string
}

// NewRegistry creates a registry with the built-in encoders.
func NewRegistry() *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	r.Register(&PNGEncoder{})
	r.Register(&JPEGEncoder{})
	r.alias("jpg", "jpeg")
	return r
}

// Register adds enc under its format name, replacing any previous one.
func (r *Registry) Register(enc Encoder) {
	f := strings.ToLower(enc.Format())
	if _, ok := r.encoders[f]; !ok {
		r.order = append(r.order, f)
	}
	r.encoders[f] = enc
}

func (r *Registry) alias(name, format string) {
	if enc, ok := r.encoders[format]; ok {
		r.encoders[name] = enc
	}
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// ForPath picks an encoder from the extension of path.
func (r *Registry) ForPath(path string) (Encoder, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("no extension in %q; available: %s", path, strings.Join(r.Available(), ", "))
	}
	enc := r.Get(ext)
	if enc == nil {
		return nil, fmt.Errorf("unsupported output format %q; available: %s", ext, strings.Join(r.Available(), ", "))
	}
	return enc, nil
}

// Available returns all registered format names in registration order.
func (r *Registry) Available() []string {
	return append([]string(nil), r.order...)
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}
