package build

import "errors"

var (
	// ErrMissingTemplate is returned when a required input file is absent.
	ErrMissingTemplate = errors.New("required template not found")

	// ErrInvalidMode is returned for a mode other than dev or prod.
	ErrInvalidMode = errors.New("invalid build mode")

	// ErrInvalidManifest is returned when the rendered manifest is not valid JSON.
	ErrInvalidManifest = errors.New("rendered manifest is not valid JSON")

	// ErrInvalidVersion is returned when the package version is not semver.
	ErrInvalidVersion = errors.New("invalid version")
)
