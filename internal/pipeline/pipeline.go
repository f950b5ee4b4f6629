package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/AnyUserName/pmb-cli/internal/manifest"
	"github.com/AnyUserName/pmb-cli/internal/profile"
)

// Config holds all parameters for a conversion run.
type Config struct {
	Inputs    []string
	OutputDir string
	Profile   profile.Profile
	Workers   int
	Verbose   bool
	Stream    bool // encode straight to disk instead of in memory

	// OnProgress, if set, receives every job state change and phase
	// boundary. It is called from worker goroutines.
	OnProgress func(ProgressEvent)
}

// Pipeline orchestrates image conversion.
type Pipeline struct {
	cfg Config
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{cfg: cfg}
}

// Run converts every source found in the inputs and returns the manifest.
// Individual failures are reported and skipped; Run fails only when no
// source converts or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.Inputs)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %v", p.cfg.Inputs)
	}
	p.logf("found %d images", len(sources))

	jobs := make([]*Job, len(sources))
	for i, src := range sources {
		jobs[i] = NewJob(src, p.cfg.OnProgress)
		if err := jobs[i].To(Selected); err != nil {
			return nil, err
		}
	}

	// Step 2: Convert in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, job := range jobs {
		select {
		case sem <- struct{}{}: // acquire
		case <-ctx.Done():
			results[i] = processResult{key: job.Source.Key, err: ctx.Err()}
			_ = job.Fail(ctx.Err()) // Selected → Failed is always allowed
			continue
		}

		wg.Add(1)
		go func(idx int, j *Job) {
			defer wg.Done()
			defer func() { <-sem }() // release

			p.logf("converting: %s", j.Source.Key)
			if err := j.To(Converting); err != nil {
				results[idx] = processResult{key: j.Source.Key, err: err}
				return
			}

			res := processImage(j, p.cfg)
			if res.err == nil {
				res.err = j.To(Done)
			}
			results[idx] = res
			if res.err != nil {
				_ = j.Fail(res.err) // Converting → Failed is always allowed
				return
			}
			for _, w := range res.entry.Warnings {
				fmt.Fprintf(os.Stderr, "[pmb] warning: %s: %s\n", j.Source.Key, w)
			}
			p.logf("done: %s → %s (%dx%d)", j.Source.Key,
				res.entry.Output.Path, res.entry.Output.Width, res.entry.Output.Height)
		}(i, job)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: Collect results into manifest.
	m := manifest.New(p.cfg.Profile.Name)

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		m.Entries[r.key] = r.entry
	}

	// Report errors but don't fail the entire run for partial failures.
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "[pmb] error: %v\n", e)
		}
		if len(errs) == len(sources) {
			return nil, fmt.Errorf("all %d images failed to convert", len(errs))
		}
		fmt.Fprintf(os.Stderr, "[pmb] warning: %d of %d images had errors\n",
			len(errs), len(sources))
	}

	m.BuildInfo = &manifest.BuildInfo{
		Workers: p.cfg.Workers,
		Failed:  len(errs),
	}
	m.ComputeStats()
	return m, nil
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[pmb] "+format+"\n", args...)
	}
}
