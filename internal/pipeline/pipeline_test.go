package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/AnyUserName/pmb-cli/internal/hasher"
	"github.com/AnyUserName/pmb-cli/internal/pmb"
	"github.com/AnyUserName/pmb-cli/internal/profile"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 99, A: uint8(255 - x)})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func fixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "banner.png"), 12, 4)
	writePNG(t, filepath.Join(dir, "cards", "card-1.png"), 3, 3)
	writePNG(t, filepath.Join(dir, ".hidden", "skip.png"), 2, 2)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644)
	return dir
}

func TestScanImages(t *testing.T) {
	dir := fixtures(t)
	sources, err := ScanImages([]string{dir})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	keys := map[string]bool{}
	for _, s := range sources {
		keys[s.Key] = true
		if s.Format != "png" {
			t.Errorf("%s: format %q", s.Key, s.Format)
		}
	}
	if len(sources) != 2 || !keys["banner.png"] || !keys["cards/card-1.png"] {
		t.Errorf("got keys %v", keys)
	}
}

func TestScanImages_FileInputs(t *testing.T) {
	dir := fixtures(t)
	banner := filepath.Join(dir, "banner.png")
	sources, err := ScanImages([]string{banner, banner})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sources) != 2 || sources[0].Key != "banner.png" || sources[1].Key != "banner.png~1" {
		t.Errorf("got %+v", sources)
	}

	if _, err := ScanImages([]string{filepath.Join(dir, "notes.txt")}); err == nil {
		t.Error("expected error for non-image file input")
	}
}

func runPipeline(t *testing.T, cfg Config) (string, error) {
	t.Helper()
	out := t.TempDir()
	cfg.OutputDir = out
	m, err := New(cfg).Run(context.Background())
	if err != nil {
		return out, err
	}
	for key, e := range m.Entries {
		outPath := filepath.Join(out, filepath.FromSlash(e.Output.Path))
		f, err := os.Open(outPath)
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		d, err := pmb.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: decode: %v", key, err)
		}
		if d.Stem != e.Output.Stem {
			t.Errorf("%s: stem %q, manifest %q", key, d.Stem, e.Output.Stem)
		}
		if d.Raster.Width != e.Output.Width || d.Raster.Height != e.Output.Height {
			t.Errorf("%s: decoded %dx%d, manifest %dx%d", key,
				d.Raster.Width, d.Raster.Height, e.Output.Width, e.Output.Height)
		}
		sum, err := hasher.FileHash(outPath, hasher.ManifestLen)
		if err != nil {
			t.Fatal(err)
		}
		if sum != e.Output.Hash {
			t.Errorf("%s: hash %s, manifest %s", key, sum, e.Output.Hash)
		}
		if info, _ := os.Stat(outPath); info.Size() != e.Output.Size {
			t.Errorf("%s: size %d, manifest %d", key, info.Size(), e.Output.Size)
		}
		if !pmb.IsToken(e.Output.Token) {
			t.Errorf("%s: token %q", key, e.Output.Token)
		}
	}
	if m.Stats.TotalEntries != len(m.Entries) {
		t.Errorf("stats: %d entries, %d in map", m.Stats.TotalEntries, len(m.Entries))
	}
	return out, nil
}

func TestPipeline_Convert(t *testing.T) {
	dir := fixtures(t)
	out, err := runPipeline(t, Config{
		Inputs:  []string{dir},
		Profile: profile.Get(profile.Default),
		Workers: 2,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(out, "cards", "card-1_*.pmb"))
	if len(matches) != 1 {
		t.Fatalf("cards output: %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")
	if lines[1] != "3,3" {
		t.Errorf("dimensions line: %q", lines[1])
	}
	// Alpha 255-x is dropped; colour channels pass through.
	if lines[2] != "(0, 0, 99)" || lines[4] != "(20, 0, 99)N" {
		t.Errorf("pixel lines: %q", lines[2:5])
	}
}

func TestPipeline_StreamMatchesInMemory(t *testing.T) {
	dir := fixtures(t)
	if _, err := runPipeline(t, Config{
		Inputs:  []string{dir},
		Profile: profile.Get(profile.Default),
		Stream:  true,
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestPipeline_ProfileResize(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "wide.png"), 200, 100)

	out := t.TempDir()
	m, err := New(Config{
		Inputs:    []string{dir},
		OutputDir: out,
		Profile:   profile.Get("thumbnail"),
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	e := m.Entries["wide.png"]
	if !e.Output.Resized || e.Output.Width != 64 || e.Output.Height != 32 {
		t.Errorf("output: %+v", e.Output)
	}
	if e.Source.Width != 200 || e.Source.Height != 100 {
		t.Errorf("source: %+v", e.Source)
	}
}

func TestPipeline_MislabelledSource(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photo.jpg"), 3, 2)
	writePNG(t, filepath.Join(dir, "honest.png"), 2, 2)

	m, err := New(Config{
		Inputs:    []string{dir},
		OutputDir: t.TempDir(),
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	e := m.Entries["photo.jpg"]
	if e.Source.Format != "png" {
		t.Errorf("format: got %q, want decoded format png", e.Source.Format)
	}
	if len(e.Warnings) != 1 || !strings.Contains(e.Warnings[0], "extension says jpeg but content is png") {
		t.Errorf("warnings: %v", e.Warnings)
	}
	if w := m.Entries["honest.png"].Warnings; len(w) != 0 {
		t.Errorf("unexpected warnings for matching extension: %v", w)
	}
}

func TestPipeline_PartialFailure(t *testing.T) {
	dir := fixtures(t)
	os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644)

	var mu sync.Mutex
	final := map[string]State{}
	m, err := New(Config{
		Inputs:    []string{dir},
		OutputDir: t.TempDir(),
		Profile:   profile.Get(profile.Default),
		OnProgress: func(ev ProgressEvent) {
			mu.Lock()
			final[ev.Key] = ev.State
			mu.Unlock()
		},
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(m.Entries) != 2 {
		t.Errorf("entries: got %d, want 2", len(m.Entries))
	}
	if m.BuildInfo.Failed != 1 {
		t.Errorf("failed: got %d", m.BuildInfo.Failed)
	}
	if final["broken.png"] != Failed || final["banner.png"] != Done {
		t.Errorf("final states: %v", final)
	}
}

func TestPipeline_AllFail(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.png"), []byte("junk"), 0o644)
	_, err := New(Config{Inputs: []string{dir}, OutputDir: t.TempDir()}).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "all 1 images failed") {
		t.Errorf("got %v", err)
	}
}

func TestPipeline_NoImages(t *testing.T) {
	_, err := New(Config{Inputs: []string{t.TempDir()}, OutputDir: t.TempDir()}).Run(context.Background())
	if err == nil {
		t.Error("expected error for empty input")
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	dir := fixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{
		Inputs:    []string{dir},
		OutputDir: t.TempDir(),
		Workers:   1,
	}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestPipeline_ProgressOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "one.png"), 2, 2)

	var events []ProgressEvent
	_, err := New(Config{
		Inputs:     []string{dir},
		OutputDir:  t.TempDir(),
		Workers:    1,
		OnProgress: func(ev ProgressEvent) { events = append(events, ev) },
	}).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []struct {
		state   State
		percent int
	}{
		{Selected, PercentSelected},
		{Converting, PercentSelected},
		{Converting, PercentDecoded},
		{Converting, PercentEncoded},
		{Done, PercentWritten},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events: %+v", len(events), events)
	}
	for i, w := range want {
		if events[i].State != w.state || events[i].Percent != w.percent {
			t.Errorf("event %d: got %s/%d, want %s/%d",
				i, events[i].State, events[i].Percent, w.state, w.percent)
		}
	}
}
