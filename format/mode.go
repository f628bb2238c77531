// mode.go - Encoding modes selecting how a line is addressed
package format

import (
	"fmt"
	"strings"
)

// Mode is the addressing unit used to slice a line into fields.
type Mode uint8

const (
	// ModeASCII addresses a line by byte: every character is one unit.
	ModeASCII Mode = 0
	// ModeUTF8 addresses a line by character (rune).
	ModeUTF8 Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeASCII:
		return "ascii"
	case ModeUTF8:
		return "utf8"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode converts a mode name ("ascii", "utf8", "utf-8") into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii":
		return ModeASCII, nil
	case "utf8", "utf-8":
		return ModeUTF8, nil
	default:
		return ModeASCII, fmt.Errorf("%w: unknown encoding mode %q", ErrConfig, s)
	}
}
