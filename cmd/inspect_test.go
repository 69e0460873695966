package cmd

import (
	"path/filepath"
	"testing"

	"github.com/docentai/extbuild/internal/build"
	"github.com/docentai/extbuild/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, mode build.Mode) *build.Result {
	t.Helper()
	l := layout.Default()
	l.SourceDir = writeSource(t)
	l.BuildDir = filepath.Join(t.TempDir(), "build")

	res, err := build.Run(build.Options{Mode: mode, Layout: l})
	require.NoError(t, err)
	return res
}

func TestInspectArchive(t *testing.T) {
	tests := []struct {
		mode    build.Mode
		capture bool
	}{
		{build.ModeDev, true},
		{build.ModeProd, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			res := buildArchive(t, tt.mode)

			report, err := inspectArchive(res.ArchivePath)
			require.NoError(t, err)

			assert.Equal(t, tt.mode, report.Mode)
			assert.Equal(t, tt.capture, report.CaptureEnabled)
			assert.Equal(t, "1.0.0", report.Version)
			assert.Equal(t, res.Archive.FilesIncluded, report.Files)
			assert.Equal(t, res.Digest, report.Digest)
		})
	}
}

func TestInspectArchiveRejectsNonExtension(t *testing.T) {
	_, err := inspectArchive(filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestInspectCommandExtracts(t *testing.T) {
	res := buildArchive(t, build.ModeProd)
	dest := filepath.Join(t.TempDir(), "unpacked")

	rootCmd.SetArgs([]string{"inspect", res.ArchivePath, "--extract", dest})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	assert.FileExists(t, filepath.Join(dest, "manifest.json"))
	assert.FileExists(t, filepath.Join(dest, "lib", "config.js"))
	assert.NoFileExists(t, filepath.Join(dest, "lib", "config.template.js"))
}

func TestInspectCommandRejectsOutputBeforeExtract(t *testing.T) {
	res := buildArchive(t, build.ModeProd)
	dest := filepath.Join(t.TempDir(), "unpacked")

	rootCmd.SetArgs([]string{"inspect", res.ArchivePath, "-o", "yaml", "--extract", dest})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		_ = inspectCmd.Flags().Set("output", "")
		_ = inspectCmd.Flags().Set("extract", "")
	})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
	assert.NoDirExists(t, dest)
}
