package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/pmb-cli/internal/manifest"
	"github.com/AnyUserName/pmb-cli/internal/pipeline"
	"github.com/AnyUserName/pmb-cli/internal/profile"
	"github.com/spf13/cobra"
)

var (
	convertOutDir     string
	convertProfile    string
	convertWorkers    int
	convertStream     bool
	convertNoManifest bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>...",
	Short: "Convert images to PMB documents",
	Long: `Converts image files, or every image found under the given directories
(png, jpg, jpeg, gif, bmp, tiff, webp), into PMB documents and writes a
manifest describing the run.

Output filenames are <name>_<token>.pmb, mirroring the input directory
layout. Profiles other than "original" downscale before encoding.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutDir, "out", "o", "./pmb_out", "output directory")
	convertCmd.Flags().StringVarP(&convertProfile, "profile", "p", profile.Default,
		"conversion profile ("+strings.Join(profile.Names(), ", ")+")")
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	convertCmd.Flags().BoolVar(&convertStream, "stream", false, "encode straight to disk instead of in memory")
	convertCmd.Flags().BoolVar(&convertNoManifest, "no-manifest", false, "do not write "+manifest.FileName)
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	start := time.Now()

	absOutput, err := filepath.Abs(convertOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	prof := profile.Get(convertProfile)
	if msg := profileWarning(convertProfile); msg != "" {
		fmt.Fprintf(os.Stderr, "[pmb] warning: %s\n", msg)
	}

	logVerbose("inputs:  %s", strings.Join(args, ", "))
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (max=%dx%d, filter=%s)", prof.Name, prof.MaxWidth, prof.MaxHeight, prof.Filter)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p := pipeline.New(pipeline.Config{
		Inputs:    args,
		OutputDir: absOutput,
		Profile:   prof,
		Workers:   convertWorkers,
		Verbose:   verbose,
		Stream:    convertStream,
		OnProgress: func(ev pipeline.ProgressEvent) {
			if ev.State == pipeline.Converting {
				logVerbose("%-40s %3d%%", truncKey(ev.Key, 40), ev.Percent)
			}
		},
	})

	m, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if !convertNoManifest {
		manifestPath := filepath.Join(absOutput, manifest.FileName)
		if err := manifest.WriteJSON(m, manifestPath); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}

	printConvertReport(m, time.Since(start))
	return nil
}

// profileWarning explains an unknown --profile, or returns "".
func profileWarning(name string) string {
	if profile.Known(name) {
		return ""
	}
	return fmt.Sprintf("unknown profile %q, using %s settings (available: %s)",
		name, profile.Default, strings.Join(profile.Names(), ", "))
}

func printConvertReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              pmb convert complete                ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Images:      %d\n", s.TotalEntries)
	if m.BuildInfo != nil && m.BuildInfo.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", m.BuildInfo.Failed)
	}
	fmt.Printf("  Pixels:      %d\n", s.TotalPixels)
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:     %d\n", m.BuildInfo.Workers)
	}
	fmt.Println()

	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	n := len(keys)
	if n > 10 {
		n = 10
	}
	if n > 0 {
		fmt.Printf("  Outputs (%d of %d):\n", n, len(keys))
		for _, k := range keys[:n] {
			e := m.Entries[k]
			fmt.Printf("    %-40s → %s  (%dx%d, %s)\n",
				truncKey(k, 40), e.Output.Path, e.Output.Width, e.Output.Height,
				formatBytes(e.Output.Size))
		}
		fmt.Println()
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
