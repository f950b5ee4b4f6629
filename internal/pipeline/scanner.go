package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the scanned input, or the base name
	// for inputs given as files.
	RelPath string
	// Key identifies the source in the manifest.
	Key string
	// Format is the source format from the extension (png, jpeg, ...).
	Format string
	// Size is the file size in bytes.
	Size int64
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsImagePath reports whether path has a recognized image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanImages resolves inputs into image sources. Files are taken as given;
// directories are walked recursively, skipping hidden directories.
func ScanImages(inputs []string) ([]Source, error) {
	var sources []Source
	seen := map[string]int{}

	add := func(abs, rel string, size int64) {
		rel = filepath.ToSlash(rel)
		key := rel
		if n := seen[rel]; n > 0 {
			key = fmt.Sprintf("%s~%d", rel, n)
		}
		seen[rel]++
		sources = append(sources, Source{
			AbsPath: abs,
			RelPath: rel,
			Key:     key,
			Format:  normalizeFormat(filepath.Ext(abs)),
			Size:    size,
		})
	}

	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", in, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !IsImagePath(abs) {
				return nil, fmt.Errorf("%s: not a recognized image file", in)
			}
			add(abs, filepath.Base(abs), info.Size())
			continue
		}

		err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				// Skip hidden directories.
				if path != abs && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsImagePath(path) {
				return nil
			}
			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return err
			}
			add(path, rel, info.Size())
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return sources, nil
}

func normalizeFormat(ext string) string {
	format := strings.ToLower(strings.TrimPrefix(ext, "."))
	switch format {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return format
}
