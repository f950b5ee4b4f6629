package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pmb",
	Short: "Convert images to the PMB plain-text pixel format",
	Long: `pmb turns ordinary images (png, jpeg, gif, bmp, tiff, webp) into PMB
documents: one "(r, g, b)" line per pixel, rows closed by an N marker,
headed by a unique stem and the image dimensions.

Outputs are named <name>_<token>.pmb so repeated conversions never collide.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pmb %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[pmb] "+format+"\n", args...)
	}
}
