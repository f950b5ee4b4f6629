package manifest

// Manifest is the top-level record of a pmb convert run.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Profile     string           `json:"profile"`
	BasePath    string           `json:"base_path"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Entries     map[string]Entry `json:"entries"`
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers int `json:"workers"`
	Failed  int `json:"failed,omitempty"`
}

// Entry describes one source image and the PMB document written for it.
type Entry struct {
	Source   SourceInfo `json:"source"`
	Output   Output     `json:"output"`
	Warnings []string   `json:"warnings,omitempty"`
}

// SourceInfo holds metadata about the source image.
type SourceInfo struct {
	Path     string `json:"path"` // relative to the scanned input
	Format   string `json:"format"`
	Size     int64  `json:"size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	HasAlpha bool   `json:"has_alpha"`
}

// Output is the PMB document produced for a source.
type Output struct {
	Path    string `json:"path"`  // relative to base_path
	Stem    string `json:"stem"`  // first line of the document
	Token   string `json:"token"` // 8-char base-36 identifier
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Resized bool   `json:"resized,omitempty"`
	Size    int64  `json:"size"` // bytes on disk
	Hash    string `json:"hash"` // first 16 hex chars of xxhash64
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalEntries     int   `json:"total_entries"`
	TotalPixels      int64 `json:"total_pixels"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// FileName is the manifest's name inside an output directory.
const FileName = "pmb.manifest.json"
