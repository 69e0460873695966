package build

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Mode selects between the developer build, which ships the screen-capture
// feature, and the store build, which does not.
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

// DefaultMode is used when no mode is given.
const DefaultMode = ModeProd

var _ pflag.Value = (*Mode)(nil)

// ParseMode converts s into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDev, ModeProd:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidMode, s, ModeDev, ModeProd)
}

func (m Mode) String() string { return string(m) }

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string { return "mode" }

// IncludesCapture reports whether the screen-capture feature ships in this mode.
func (m Mode) IncludesCapture() bool { return m == ModeDev }
