package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/docentai/extbuild/internal/layout"
	"github.com/docentai/extbuild/pkg/util"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
)

// Source and output paths of the generated files, relative to the source root
// and the output tree respectively.
const (
	ConfigTemplatePath    = "lib/config.template.js"
	ConfigOutputPath      = "lib/config.js"
	ManifestTemplatePath  = "manifest.template.json"
	ManifestOutputPath    = "manifest.json"
	EntryPointPath        = "background/service-worker.js"
	CaptureEntryPointPath = "features/capture/service-worker-capture.js"

	// DefaultVersion names the archive when neither the options nor the
	// manifest provide a usable version.
	DefaultVersion = "1.0.0"
)

// Options configures one build.
type Options struct {
	Mode   Mode
	Layout layout.Layout

	// APIURL overrides Layout.APIURL when set
	APIURL string
	// Version overrides Layout.Version and the manifest version when set
	Version string
}

// Result reports what a build produced.
type Result struct {
	Mode          Mode
	Version       string
	APIURL        string
	OutputDir     string
	ArchivePath   string
	Digest        string
	Generated     []string
	Copied        []string
	Skipped       []string
	Warnings      []string
	CaptureMerged bool
	Archive       *util.ZipStats
}

type pipeline struct {
	opts   Options
	layout layout.Layout
	result *Result
}

// Run executes the packaging pipeline: reset the output tree, render the
// config and manifest, merge the service worker, copy assets, copy the
// capture files for dev builds and finally archive the tree.
func Run(opts Options) (*Result, error) {
	if _, err := ParseMode(opts.Mode.String()); err != nil {
		return nil, err
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	p := &pipeline{
		opts:   opts,
		layout: opts.Layout,
		result: &Result{
			Mode:      opts.Mode,
			APIURL:    lo.CoalesceOrEmpty(opts.APIURL, opts.Layout.APIURL, layout.DefaultAPIURL),
			OutputDir: opts.Layout.OutputDir(),
		},
	}

	explicitVersion := lo.CoalesceOrEmpty(opts.Version, opts.Layout.Version)
	if explicitVersion != "" {
		v, err := normalizeVersion(explicitVersion)
		if err != nil {
			return nil, err
		}
		p.result.Version = v
	}

	pterm.Info.Printf("Building %s (mode: %s)...\n", p.layout.Name, opts.Mode)

	steps := []func() error{
		p.resetWorkspace,
		p.generateConfig,
		p.generateManifest,
		p.mergeEntryPoint,
		p.copyAssets,
		p.copyCaptureFiles,
		p.createArchive,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return p.result, err
		}
	}

	return p.result, nil
}

func (p *pipeline) src(rel string) string {
	return filepath.Join(p.layout.SourceDir, filepath.FromSlash(rel))
}

func (p *pipeline) out(rel string) string {
	return filepath.Join(p.result.OutputDir, filepath.FromSlash(rel))
}

func (p *pipeline) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.result.Warnings = append(p.result.Warnings, msg)
	pterm.Warning.Println(msg)
}

func (p *pipeline) resetWorkspace() error {
	if err := util.ResetDir(p.result.OutputDir); err != nil {
		return fmt.Errorf("failed to reset build directory: %w", err)
	}
	pterm.Debug.Printf("Reset %s\n", p.result.OutputDir)
	return nil
}

func (p *pipeline) generateConfig() error {
	content, err := RenderFile(
		p.src(ConfigTemplatePath),
		p.out(ConfigOutputPath),
		ConfigBindings(p.opts.Mode, p.result.APIURL),
	)
	if err != nil {
		return err
	}
	p.checkUnresolved(ConfigOutputPath, content)
	p.result.Generated = append(p.result.Generated, ConfigOutputPath)
	pterm.Success.Printf("Generated %s (mode: %s, API: %s)\n", ConfigOutputPath, p.opts.Mode, p.result.APIURL)
	return nil
}

func (p *pipeline) generateManifest() error {
	templatePath := p.src(ManifestTemplatePath)
	template, err := readRequired(templatePath)
	if err != nil {
		return err
	}

	content, err := RenderManifest(p.opts.Mode, template)
	if err != nil {
		return fmt.Errorf("%w: %s", err, templatePath)
	}
	p.checkUnresolved(ManifestOutputPath, content)

	if err := writeFile(p.out(ManifestOutputPath), content); err != nil {
		return err
	}
	p.result.Generated = append(p.result.Generated, ManifestOutputPath)
	pterm.Success.Printf("Generated %s (mode: %s)\n", ManifestOutputPath, p.opts.Mode)

	if p.result.Version == "" {
		p.result.Version = p.versionFromManifest(content)
	}
	return nil
}

func (p *pipeline) versionFromManifest(manifest string) string {
	raw := ManifestVersion(manifest)
	if raw == "" {
		return DefaultVersion
	}
	v, err := normalizeVersion(raw)
	if err != nil {
		p.warn("Manifest version %q is not semver, naming archive with %s", raw, DefaultVersion)
		return DefaultVersion
	}
	return v
}

func (p *pipeline) mergeEntryPoint() error {
	base, err := readRequired(p.src(EntryPointPath))
	if err != nil {
		return err
	}

	var capture string
	hasCapture := false
	if p.opts.Mode.IncludesCapture() {
		data, err := os.ReadFile(p.src(CaptureEntryPointPath))
		switch {
		case err == nil:
			capture, hasCapture = string(data), true
		case os.IsNotExist(err):
			p.warn("Missing: %s (service worker built without capture logic)", p.src(CaptureEntryPointPath))
		default:
			return fmt.Errorf("failed to read %s: %w", p.src(CaptureEntryPointPath), err)
		}
	}

	merged := MergeEntryPoint(p.opts.Mode, base, capture, hasCapture)
	if err := writeFile(p.out(EntryPointPath), merged); err != nil {
		return err
	}

	p.result.CaptureMerged = hasCapture
	if hasCapture {
		pterm.Success.Printf("Merged %s (DEV MODE)\n", filepath.Base(CaptureEntryPointPath))
	}
	p.result.Generated = append(p.result.Generated, EntryPointPath)
	pterm.Success.Printf("Generated %s\n", EntryPointPath)
	return nil
}

func (p *pipeline) copyAssets() error {
	for _, rule := range p.layout.Copies {
		src := p.src(rule.Src)
		copied, err := util.CopyPath(src, p.out(rule.Target()), rule.Exclude...)
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}
		if !copied {
			p.result.Skipped = append(p.result.Skipped, rule.Src)
			p.warn("Missing: %s", src)
			continue
		}

		p.result.Copied = append(p.result.Copied, rule.Src)
		if len(rule.Exclude) > 0 {
			pterm.Success.Printf("Copied %s (excluded: %s)\n", src, strings.Join(rule.Exclude, ", "))
		} else {
			pterm.Success.Printf("Copied %s\n", src)
		}
	}
	return nil
}

func (p *pipeline) copyCaptureFiles() error {
	if !p.opts.Mode.IncludesCapture() {
		pterm.Info.Println("Screen capture feature disabled (PROD MODE)")
		return nil
	}

	for _, rel := range p.layout.CaptureFiles {
		src := p.src(rel)
		copied, err := util.CopyPath(src, p.out(rel))
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}
		if !copied {
			p.result.Skipped = append(p.result.Skipped, rel)
			p.warn("Missing (DEV): %s", src)
			continue
		}
		p.result.Copied = append(p.result.Copied, rel)
		pterm.Success.Printf("Copied (DEV): %s\n", src)
	}

	pterm.Info.Println("Screen capture feature enabled (DEV MODE)")
	return nil
}

func (p *pipeline) createArchive() error {
	name := ArchiveName(p.layout.Name, p.opts.Mode, p.result.Version)
	p.result.ArchivePath = filepath.Join(p.layout.BuildDir, name)

	pterm.Info.Printf("Creating archive: %s\n", p.result.ArchivePath)

	stats, err := util.ZipDirectory(p.result.OutputDir, p.result.ArchivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", p.result.ArchivePath, err)
	}
	for _, entry := range stats.Entries {
		pterm.Debug.Printf("Added: %s\n", entry)
	}
	p.result.Archive = stats

	digest, err := util.FileDigest(p.result.ArchivePath)
	if err != nil {
		return err
	}
	p.result.Digest = digest

	pterm.Success.Printf("Archive created: %s (%d files, %s)\n",
		p.result.ArchivePath, stats.FilesIncluded, util.FormatBytes(stats.BytesIncluded))
	return nil
}

func (p *pipeline) checkUnresolved(name, content string) {
	if tokens := UnresolvedTokens(content); len(tokens) > 0 {
		p.warn("Unresolved placeholders in %s: %s", name, strings.Join(tokens, ", "))
	}
}

// ArchiveName returns "<name>-<mode>-v<version>.zip".
func ArchiveName(name string, mode Mode, version string) string {
	return fmt.Sprintf("%s-%s-v%s.zip", name, mode, version)
}

func normalizeVersion(raw string) (string, error) {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidVersion, raw, err)
	}
	return v.String(), nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
