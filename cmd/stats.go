package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/pmb-cli/internal/manifest"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a converted output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path := args[0]

	// If path is a directory, look for manifest inside.
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}

	printStats(m)
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:          %d\n", m.BuildInfo.Workers)
		if m.BuildInfo.Failed > 0 {
			fmt.Printf("  Failed sources:   %d\n", m.BuildInfo.Failed)
		}
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Documents:        %d\n", s.TotalEntries)
	fmt.Printf("  Pixels:           %d\n", s.TotalPixels)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes)
		fmt.Printf("  Expansion:        %.1f× original\n", ratio)
	}
	if s.TotalPixels > 0 {
		fmt.Printf("  Bytes per pixel:  %.2f\n", float64(s.TotalOutputBytes)/float64(s.TotalPixels))
	}
	fmt.Println()

	// Per-format breakdown.
	formatStats := map[string]struct {
		count int
		bytes int64
	}{}
	var resized, alpha int
	for _, e := range m.Entries {
		fs := formatStats[e.Source.Format]
		fs.count++
		fs.bytes += e.Source.Size
		formatStats[e.Source.Format] = fs
		if e.Output.Resized {
			resized++
		}
		if e.Source.HasAlpha {
			alpha++
		}
	}

	formats := make([]string, 0, len(formatStats))
	for f := range formatStats {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	fmt.Println("  Source formats:")
	for _, f := range formats {
		fs := formatStats[f]
		fmt.Printf("    %-6s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
	}
	fmt.Println()

	fmt.Printf("  Resized:          %d / %d\n", resized, len(m.Entries))
	fmt.Printf("  Alpha dropped:    %d / %d\n", alpha, len(m.Entries))

	// Warnings.
	var warnings []string
	for key, e := range m.Entries {
		if e.Output.Hash == "" {
			warnings = append(warnings, fmt.Sprintf("entry %q missing hash", key))
		}
		if e.Output.Width == 0 || e.Output.Height == 0 {
			warnings = append(warnings, fmt.Sprintf("entry %q has empty dimensions", key))
		}
	}
	if len(warnings) > 0 {
		sort.Strings(warnings)
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}
