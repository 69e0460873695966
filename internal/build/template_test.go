package build

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfig(t *testing.T) {
	got := Render("url={{API_URL}} mode={{BUILD_MODE}}", ConfigBindings(ModeDev, "https://x"))
	assert.Equal(t, "url=https://x mode=dev", got)
}

func TestRenderReplacesEveryOccurrence(t *testing.T) {
	got := Render("{{A}}-{{A}}-{{B}}", Bindings{"{{A}}": "1", "{{B}}": "2"})
	assert.Equal(t, "1-1-2", got)
}

func TestRenderLeavesUnboundTokens(t *testing.T) {
	got := Render("{{API_URL}} {{UNKNOWN}}", Bindings{TokenAPIURL: "https://x"})
	assert.Equal(t, "https://x {{UNKNOWN}}", got)
}

func TestRenderIsSinglePass(t *testing.T) {
	b := Bindings{
		"{{A}}": "{{B}}",
		"{{B}}": "b",
	}
	assert.Equal(t, "{{B}} b", Render("{{A}} {{B}}", b))
}

func TestRenderPrefersLongerToken(t *testing.T) {
	b := Bindings{
		"{{CAPTURE}}":           "short",
		"{{CAPTURE}}_FEATURE}}": "long",
	}
	assert.Equal(t, "long", Render("{{CAPTURE}}_FEATURE}}", b))
}

func TestRenderEmptyBindings(t *testing.T) {
	assert.Equal(t, "{{API_URL}}", Render("{{API_URL}}", nil))
	assert.Equal(t, "x", Render("x", Bindings{"": "y"}))
}

func TestRenderIsRepeatable(t *testing.T) {
	template := manifestTemplate
	for _, mode := range []Mode{ModeDev, ModeProd} {
		first := Render(template, ManifestBindings(mode))
		second := Render(template, ManifestBindings(mode))
		assert.Equal(t, first, second, "mode %s", mode)
	}
}

func TestUnresolvedTokens(t *testing.T) {
	assert.Equal(t, []string{"{{API_URL}}", "{{X_1}}"}, UnresolvedTokens("{{API_URL}} {{X_1}} {{API_URL}}"))
	assert.Empty(t, UnresolvedTokens("const x = {{ notAToken }};"))
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.template.js")
	dst := filepath.Join(dir, "out", "lib", "config.js")
	require.NoError(t, os.WriteFile(src, []byte("API_URL: '{{API_URL}}'"), 0644))

	content, err := RenderFile(src, dst, ConfigBindings(ModeProd, "https://api"))
	require.NoError(t, err)
	assert.Equal(t, "API_URL: 'https://api'", content)

	written, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, string(written))
}

func TestRenderFileMissingTemplate(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.template.js")
	_, err := RenderFile(missing, filepath.Join(t.TempDir(), "config.js"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingTemplate))
	assert.Contains(t, err.Error(), missing)
}
