// Package layout describes where the extension sources live, what gets copied
// into the package and how the archive is named. Built-in defaults match the
// DocentAI repository; an optional YAML file can override them.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFilename is looked up in the working directory when no layout file is given
	DefaultFilename = "extbuild.yaml"

	// DefaultName prefixes archive file names
	DefaultName = "docentai-ui"

	// DefaultAPIURL is injected into lib/config.js unless overridden
	DefaultAPIURL = "https://docentai-api-1064006289042.asia-northeast3.run.app"
)

// CopyRule copies Src (relative to the source root) to Dest (relative to the
// output tree), skipping entries whose name contains any Exclude substring.
type CopyRule struct {
	Src     string   `yaml:"src"`
	Dest    string   `yaml:"dest,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// Target returns Dest, or Src when Dest is empty.
func (r CopyRule) Target() string {
	if r.Dest != "" {
		return r.Dest
	}
	return r.Src
}

// Layout is the resolved packaging layout.
type Layout struct {
	Name         string     `yaml:"name"`
	SourceDir    string     `yaml:"source"`
	BuildDir     string     `yaml:"build"`
	APIURL       string     `yaml:"api_url"`
	Version      string     `yaml:"version"`
	Copies       []CopyRule `yaml:"copy"`
	CaptureFiles []string   `yaml:"capture_files"`
}

// OutputDir is the directory the extension tree is assembled into.
func (l Layout) OutputDir() string {
	return filepath.Join(l.BuildDir, "extension")
}

// Default returns the layout of the DocentAI extension repository.
func Default() Layout {
	return Layout{
		Name:      DefaultName,
		SourceDir: "extension",
		BuildDir:  "build",
		APIURL:    DefaultAPIURL,
		Copies: []CopyRule{
			{Src: "popup"},
			{Src: "options"},
			{Src: "assets"},
			{Src: "lang"},
			{Src: "content/netflix-detector.js"},
			{Src: "content/subtitle-cache.js"},
			{Src: "content/ui-components.js"},
			{Src: "content/content.js"},
			{Src: "content/styles.css"},
			{Src: "lib", Exclude: []string{"config.template.js"}},
		},
		CaptureFiles: []string{
			"features/capture/imageIO-utils.js",
			"features/capture/capture-feature.js",
		},
	}
}

// Load reads a layout file and merges it onto Default. Scalar fields left
// empty keep their default; a non-empty copy or capture_files list replaces
// the default list. A missing file yields an error wrapping os.ErrNotExist.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}

	var file Layout
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}

	merged := Merge(Default(), file)
	if err := merged.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout file %s: %w", path, err)
	}
	return merged, nil
}

// Merge overlays the non-empty fields of override onto base.
func Merge(base, override Layout) Layout {
	base.Name = lo.CoalesceOrEmpty(override.Name, base.Name)
	base.SourceDir = lo.CoalesceOrEmpty(override.SourceDir, base.SourceDir)
	base.BuildDir = lo.CoalesceOrEmpty(override.BuildDir, base.BuildDir)
	base.APIURL = lo.CoalesceOrEmpty(override.APIURL, base.APIURL)
	base.Version = lo.CoalesceOrEmpty(override.Version, base.Version)
	if len(override.Copies) > 0 {
		base.Copies = override.Copies
	}
	if len(override.CaptureFiles) > 0 {
		base.CaptureFiles = override.CaptureFiles
	}
	return base
}

// Validate checks that every copied path stays inside its root.
func (l Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	for i, rule := range l.Copies {
		if rule.Src == "" {
			return fmt.Errorf("copy[%d]: src must not be empty", i)
		}
		if !filepath.IsLocal(rule.Src) || !filepath.IsLocal(rule.Target()) {
			return fmt.Errorf("copy[%d]: %s must be a relative path inside the tree", i, rule.Src)
		}
	}
	for _, f := range l.CaptureFiles {
		if !filepath.IsLocal(f) {
			return fmt.Errorf("capture file %s must be a relative path inside the tree", f)
		}
	}
	return nil
}
