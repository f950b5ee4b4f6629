package cmd

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/AnyUserName/pmb-cli/internal/encoder"
	"github.com/AnyUserName/pmb-cli/internal/pmb"
	"github.com/AnyUserName/pmb-cli/internal/raster"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

var (
	renderOut     string
	renderFormat  string
	renderScale   int
	renderQuality int
)

// maxRenderPixels caps the scaled output so a large --scale cannot request
// an unbounded allocation.
const maxRenderPixels = 1 << 26

var renderCmd = &cobra.Command{
	Use:   "render <file.pmb>",
	Short: "Render a PMB document back to a PNG or JPEG image",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default <stem>.<format> next to the input)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "png", "output format when --out has no extension")
	renderCmd.Flags().IntVarP(&renderScale, "scale", "s", 1, "integer upscale factor (nearest neighbour)")
	renderCmd.Flags().IntVarP(&renderQuality, "quality", "q", 0, "JPEG quality 1-100 (0 = default)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, args []string) error {
	if renderScale < 1 {
		return fmt.Errorf("scale must be >= 1, got %d", renderScale)
	}

	d, err := readPMB(args[0])
	if err != nil {
		return err
	}

	reg := encoder.NewRegistry()
	outPath := renderOut
	if outPath == "" {
		enc := reg.Get(renderFormat)
		if enc == nil {
			return fmt.Errorf("unsupported format %q; %s", renderFormat, reg)
		}
		outPath = filepath.Join(filepath.Dir(args[0]), d.Stem+"."+enc.Extension())
	} else if filepath.Ext(outPath) == "" {
		outPath += "." + renderFormat
	}
	enc, err := reg.ForPath(outPath)
	if err != nil {
		return err
	}

	w, h, err := scaledSize(d.Raster.Width, d.Raster.Height, renderScale)
	if err != nil {
		return err
	}
	var img image.Image = raster.ToImage(d.Raster)
	if renderScale > 1 {
		img = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}

	data, err := enc.Encode(img, renderQuality)
	if err != nil {
		return fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	logVerbose("%s: %dx%d ×%d → %s (%s)", d.Stem, d.Raster.Width, d.Raster.Height,
		renderScale, outPath, formatBytes(int64(len(data))))
	fmt.Printf("  ✓ %s\n", outPath)
	return nil
}

// scaledSize multiplies w and h by scale, refusing results above
// maxRenderPixels.
func scaledSize(w, h, scale int) (int, int, error) {
	if scale < 1 {
		return 0, 0, fmt.Errorf("scale must be >= 1, got %d", scale)
	}
	if w > maxRenderPixels/scale || h > maxRenderPixels/scale ||
		w*scale > maxRenderPixels/(h*scale) {
		return 0, 0, fmt.Errorf("%dx%d at scale %d exceeds %d output pixels", w, h, scale, maxRenderPixels)
	}
	return w * scale, h * scale, nil
}

func readPMB(path string) (*pmb.Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := pmb.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
