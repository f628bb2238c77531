// parser.go - Column parser interface and base implementation
package column

import (
	"fmt"
	"strings"
)

// Parser converts the trimmed text of a field into a typed Go value.
type Parser interface {
	// Parse converts value according to ft. An empty value yields nil.
	Parse(value string, ft *FieldType) (any, error)
}

// BaseParser provides common functionality for column parsers
type BaseParser struct{}

// normalize trims blanks and reports whether anything is left
func (p *BaseParser) normalize(value string) (string, bool) {
	v := strings.TrimSpace(value)
	return v, v != ""
}

// signed moves a trailing sign in front of the digits, as fixed-width
// exports often write it after them ("123-"). At most one sign is allowed.
func (p *BaseParser) signed(v string) (string, error) {
	if n := len(v); n > 1 && (v[n-1] == '-' || v[n-1] == '+') {
		v = v[n-1:] + strings.TrimSpace(v[:n-1])
	}
	digits := strings.TrimLeft(v, "+-")
	if len(v)-len(digits) > 1 || strings.ContainsAny(digits, "+-") {
		return "", fmt.Errorf("misplaced or repeated sign in %q", v)
	}
	if len(v) > len(digits) {
		// blanks between the sign and the digits
		v = v[:1] + strings.TrimSpace(digits)
	}
	return v, nil
}
