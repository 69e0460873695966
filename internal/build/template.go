package build

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Placeholder tokens understood by the extension templates.
const (
	TokenAPIURL                 = "{{API_URL}}"
	TokenBuildMode              = "{{BUILD_MODE}}"
	TokenCapturePermissions     = "{{CAPTURE_PERMISSIONS}}"
	TokenCaptureHostPermissions = "{{CAPTURE_HOST_PERMISSIONS}}"
	TokenCaptureUtils           = "{{CAPTURE_UTILS}}"
	TokenCaptureFeature         = "{{CAPTURE_FEATURE}}"
)

// Bindings maps a literal placeholder token to its replacement.
type Bindings map[string]string

var placeholderPattern = regexp.MustCompile(`\{\{[A-Z][A-Z0-9_]*\}\}`)

// Render replaces every occurrence of every bound token in template. The
// replacement happens in a single pass, so a replacement value is never
// expanded again. Tokens without a binding are left as they are.
func Render(template string, b Bindings) string {
	tokens := lo.Filter(lo.Keys(b), func(token string, _ int) bool { return token != "" })
	if len(tokens) == 0 {
		return template
	}
	// longest first so a token that prefixes another cannot shadow it
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})

	oldnew := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		oldnew = append(oldnew, token, b[token])
	}
	return strings.NewReplacer(oldnew...).Replace(template)
}

// UnresolvedTokens lists the distinct {{NAME}} placeholders left in content.
func UnresolvedTokens(content string) []string {
	return lo.Uniq(placeholderPattern.FindAllString(content, -1))
}

// RenderFile reads the template at src, renders it and writes the result to
// dst. A missing template is reported as ErrMissingTemplate.
func RenderFile(src, dst string, b Bindings) (string, error) {
	template, err := readRequired(src)
	if err != nil {
		return "", err
	}

	content := Render(template, b)
	if err := writeFile(dst, content); err != nil {
		return "", err
	}
	return content, nil
}

func readRequired(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrMissingTemplate, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
