package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/pmb-cli/internal/hasher"
	"github.com/AnyUserName/pmb-cli/internal/manifest"
	"github.com/AnyUserName/pmb-cli/internal/pmb"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.pmb|manifest_path>",
	Short: "Check PMB documents, or a manifest and every file it references",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	path := args[0]

	if strings.EqualFold(filepath.Ext(path), pmb.Extension) {
		d, err := readPMB(path)
		if err != nil {
			fmt.Printf("  ✗ %v\n", err)
			return fmt.Errorf("validation failed")
		}
		fmt.Printf("  ✓ %s: %dx%d, %d rows\n", d.Stem, d.Raster.Width, d.Raster.Height, d.Raster.Height)
		return nil
	}

	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}

	errors := validateManifest(m, filepath.Dir(path))
	if len(errors) == 0 {
		fmt.Println("  ✓ Manifest is valid")
		fmt.Printf("  ✓ %d documents — all files present and intact\n", len(m.Entries))
		return nil
	}

	fmt.Printf("  ✗ Manifest has %d error(s):\n", len(errors))
	for _, e := range errors {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errors))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string

	// Check version.
	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Entries))
	for k := range m.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seenPaths := map[string]string{}
	for _, key := range keys {
		out := m.Entries[key].Output

		if out.Width <= 0 || out.Height <= 0 {
			errs = append(errs, fmt.Sprintf("entry %q: invalid dimensions %dx%d", key, out.Width, out.Height))
		}
		if !pmb.IsToken(out.Token) {
			errs = append(errs, fmt.Sprintf("entry %q: malformed token %q", key, out.Token))
		}
		if out.Path == "" {
			errs = append(errs, fmt.Sprintf("entry %q: missing path", key))
			continue
		}
		if other, ok := seenPaths[out.Path]; ok {
			errs = append(errs, fmt.Sprintf("entry %q: path %q already used by %q", key, out.Path, other))
		}
		seenPaths[out.Path] = key

		fullPath := filepath.Join(baseDir, filepath.FromSlash(out.Path))
		info, err := os.Stat(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: file not found: %s", key, out.Path))
			continue
		}
		if info.Size() != out.Size {
			errs = append(errs, fmt.Sprintf("entry %q: size mismatch: manifest=%d, disk=%d",
				key, out.Size, info.Size()))
		}
		if sum, err := hasher.FileHash(fullPath, hasher.ManifestLen); err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: %v", key, err))
		} else if sum != out.Hash {
			errs = append(errs, fmt.Sprintf("entry %q: hash mismatch: manifest=%s, disk=%s", key, out.Hash, sum))
		}

		d, err := readPMB(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: %v", key, err))
			continue
		}
		if d.Stem != out.Stem {
			errs = append(errs, fmt.Sprintf("entry %q: stem mismatch: manifest=%q, file=%q", key, out.Stem, d.Stem))
		}
		if d.Raster.Width != out.Width || d.Raster.Height != out.Height {
			errs = append(errs, fmt.Sprintf("entry %q: dimensions mismatch: manifest=%dx%d, file=%dx%d",
				key, out.Width, out.Height, d.Raster.Width, d.Raster.Height))
		}
	}

	// Verify stats consistency.
	if m.Stats.TotalEntries != len(m.Entries) {
		errs = append(errs, fmt.Sprintf("stats.total_entries mismatch: %d != %d", m.Stats.TotalEntries, len(m.Entries)))
	}

	return errs
}
