package build

import (
	"github.com/tidwall/gjson"
)

// Fragments spliced into manifest.template.json for dev builds. Each starts
// with a comma so it can follow the last fixed entry of its array.
const (
	CapturePermissionsFragment     = ",\n    \"activeTab\""
	CaptureHostPermissionsFragment = ",\n    \"<all_urls>\""
	CaptureUtilsFragment           = ",\n        \"features/capture/imageIO-utils.js\""
	CaptureFeatureFragment         = ",\n        \"features/capture/capture-feature.js\""
)

// EntryPointSeparator joins the base service worker and the capture script.
const EntryPointSeparator = "\n\n"

// ConfigBindings returns the tokens for lib/config.template.js.
func ConfigBindings(mode Mode, apiURL string) Bindings {
	return Bindings{
		TokenAPIURL:    apiURL,
		TokenBuildMode: mode.String(),
	}
}

// ManifestBindings returns the tokens for manifest.template.json. Only dev
// declares the screen-capture capability; prod resolves every token to "".
func ManifestBindings(mode Mode) Bindings {
	if mode.IncludesCapture() {
		return Bindings{
			TokenCapturePermissions:     CapturePermissionsFragment,
			TokenCaptureHostPermissions: CaptureHostPermissionsFragment,
			TokenCaptureUtils:           CaptureUtilsFragment,
			TokenCaptureFeature:         CaptureFeatureFragment,
		}
	}
	return Bindings{
		TokenCapturePermissions:     "",
		TokenCaptureHostPermissions: "",
		TokenCaptureUtils:           "",
		TokenCaptureFeature:         "",
	}
}

// RenderManifest renders a manifest template for mode and checks that the
// result is valid JSON.
func RenderManifest(mode Mode, template string) (string, error) {
	content := Render(template, ManifestBindings(mode))
	if !gjson.Valid(content) {
		return "", ErrInvalidManifest
	}
	return content, nil
}

// ManifestVersion returns the "version" field of a rendered manifest, or "".
func ManifestVersion(manifest string) string {
	return gjson.Get(manifest, "version").String()
}

// DeclaresCapture reports whether a rendered manifest lists the capture
// feature script in any content script.
func DeclaresCapture(manifest string) bool {
	found := false
	gjson.Get(manifest, "content_scripts.#.js").ForEach(func(_, scripts gjson.Result) bool {
		scripts.ForEach(func(_, script gjson.Result) bool {
			if script.String() == "features/capture/capture-feature.js" {
				found = true
			}
			return !found
		})
		return !found
	})
	return found
}

// MergeEntryPoint appends the capture script to the base service worker when
// mode includes capture and the capture script exists.
func MergeEntryPoint(mode Mode, base, capture string, hasCapture bool) string {
	if !mode.IncludesCapture() || !hasCapture {
		return base
	}
	return base + EntryPointSeparator + capture
}
