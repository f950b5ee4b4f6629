package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/AnyUserName/pmb-cli/internal/hasher"
	"github.com/AnyUserName/pmb-cli/internal/manifest"
	"github.com/AnyUserName/pmb-cli/internal/pmb"
	"github.com/AnyUserName/pmb-cli/internal/raster"
	"github.com/disintegration/imaging"
)

// processResult holds the result of converting a single source image.
type processResult struct {
	key   string
	entry manifest.Entry
	err   error
}

// processImage converts one source: decode, optional resize, PMB encode,
// write, hash. The job must be Converting on entry and is left there; the
// caller finishes it.
func processImage(job *Job, cfg Config) processResult {
	src := job.Source
	result := processResult{key: src.Key}

	f, err := os.Open(src.AbsPath)
	if err != nil {
		result.err = fmt.Errorf("open %s: %w", src.RelPath, err)
		return result
	}
	img, format, err := raster.DecodeImage(f)
	f.Close()
	if err != nil {
		result.err = fmt.Errorf("%s: %w", src.RelPath, err)
		return result
	}

	origW, origH := img.Rect.Dx(), img.Rect.Dy()
	w, h, resize := cfg.Profile.Fit(origW, origH)
	if resize {
		img = imaging.Resize(img, w, h, cfg.Profile.Resample())
	}
	r := raster.FromImage(img)
	job.Progress(PercentDecoded)

	// Outputs mirror the source's directory inside OutputDir.
	relDir := path.Dir(src.RelPath)
	outDir := filepath.Join(cfg.OutputDir, filepath.FromSlash(relDir))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		result.err = fmt.Errorf("create %s: %w", outDir, err)
		return result
	}

	sourceName := path.Base(src.RelPath)
	var out written
	if cfg.Stream {
		out, err = writeStreamed(r, sourceName, outDir, job)
	} else {
		out, err = writeDocument(r, sourceName, outDir, job)
	}
	if err != nil {
		result.err = fmt.Errorf("%s: %w", src.RelPath, err)
		return result
	}

	// The decoder sniffs content, so a mislabelled file still converts.
	if src.Format != "" && src.Format != format {
		result.entry.Warnings = append(result.entry.Warnings,
			fmt.Sprintf("extension says %s but content is %s", src.Format, format))
	}

	result.entry.Source = manifest.SourceInfo{
		Path:     src.RelPath,
		Format:   format,
		Size:     src.Size,
		Width:    origW,
		Height:   origH,
		HasAlpha: raster.HasAlpha(r),
	}
	result.entry.Output = manifest.Output{
		Path:    path.Join(relDir, out.stem+pmb.Extension),
		Stem:    out.stem,
		Token:   pmb.Document{FileName: out.stem + pmb.Extension}.Token(),
		Width:   r.Width,
		Height:  r.Height,
		Resized: resize,
		Size:    out.size,
		Hash:    out.hash,
	}
	return result
}

type written struct {
	stem string
	size int64
	hash string
}

// writeDocument encodes in memory with pmb.Encode and writes the result.
func writeDocument(r pmb.Raster, sourceName, outDir string, job *Job) (written, error) {
	doc, err := pmb.Encode(r, sourceName)
	if err != nil {
		return written{}, err
	}
	job.Progress(PercentEncoded)

	outPath := filepath.Join(outDir, doc.FileName)
	if err := os.WriteFile(outPath, []byte(doc.Content), 0o644); err != nil {
		return written{}, fmt.Errorf("write %s: %w", doc.FileName, err)
	}
	return written{
		stem: doc.Stem(),
		size: int64(len(doc.Content)),
		hash: hasher.StringHash(doc.Content, hasher.ManifestLen),
	}, nil
}

// writeStreamed encodes straight to disk, hashing on the way, so large
// rasters never hold the whole payload in memory.
func writeStreamed(r pmb.Raster, sourceName, outDir string, job *Job) (written, error) {
	stem := pmb.NewStem(sourceName)
	outPath := filepath.Join(outDir, stem+pmb.Extension)

	f, err := os.Create(outPath)
	if err != nil {
		return written{}, fmt.Errorf("create %s: %w", stem+pmb.Extension, err)
	}
	h := hasher.NewWriter()
	cw := &countingWriter{w: io.MultiWriter(f, h)}
	bw := bufio.NewWriterSize(cw, 256*1024)

	err = pmb.EncodeTo(bw, r, stem)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outPath)
		return written{}, fmt.Errorf("write %s: %w", stem+pmb.Extension, err)
	}
	job.Progress(PercentEncoded)

	return written{stem: stem, size: cw.n, hash: h.Sum(hasher.ManifestLen)}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
