// text.go - Unit-aware line width and padding utilities
package format

import (
	"strings"
	"unicode/utf8"
)

// Width returns the length of s in the addressing unit of mode:
// bytes for ModeASCII, runes for ModeUTF8.
func Width(s string, mode Mode) int {
	if mode == ModeUTF8 {
		return utf8.RuneCountInString(s)
	}
	return len(s)
}

// PadLine right-pads a line shorter than width with blanks up to width,
// then appends one more blank. Lines already at least width units long are
// returned unchanged.
//
// The extra blank is kept on purpose: existing layouts and data were produced
// against it and every offset computed downstream assumes it.
func PadLine(line string, width int, mode Mode) string {
	n := Width(line, mode)
	if n >= width {
		return line
	}
	var sb strings.Builder
	sb.Grow(len(line) + width - n + 1)
	sb.WriteString(line)
	for i := n; i <= width; i++ {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// TrimEOL strips one trailing "\n" or "\r\n" from line.
func TrimEOL(line string) string {
	if strings.HasSuffix(line, "\n") {
		line = line[:len(line)-1]
		if strings.HasSuffix(line, "\r") {
			line = line[:len(line)-1]
		}
	}
	return line
}
