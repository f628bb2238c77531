// mapper.go - Line classifiers returning a record identifier
package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wilhasse/go-rbf/format"
)

// Func returns the record identifier of a raw line
type Func func(line string) string

// Classifier kinds of the mapper grammar
const (
	KindConstant = 0
	KindRange    = 1
	KindRanges   = 2
)

var grammar = regexp.MustCompile(`^type:(\d)\s+map:\s*([\w\.,]+)\s*$`)

// Compile builds a Func from "type:<n> map:<spec>":
//
//	type:0 map:ID          every line is record ID
//	type:1 map:0..2        identifier is line[0:2]
//	type:2 map:0..2,4..6   identifier is line[0:2] + line[4:6]
//
// Offsets are bytes, upper bounds excluded.
func Compile(spec string) (Func, error) {
	m := grammar.FindStringSubmatch(strings.TrimSpace(spec))
	if m == nil {
		return nil, fmt.Errorf("%w: malformed mapper %q", format.ErrConfig, spec)
	}
	kind, _ := strconv.Atoi(m[1])
	arg := m[2]

	switch kind {
	case KindConstant:
		return Constant(arg), nil
	case KindRange:
		a, b, err := parseRange(arg)
		if err != nil {
			return nil, err
		}
		return Range(a, b), nil
	case KindRanges:
		first, second, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("%w: mapper %q needs two ranges", format.ErrConfig, spec)
		}
		a, b, err := parseRange(first)
		if err != nil {
			return nil, err
		}
		c, d, err := parseRange(second)
		if err != nil {
			return nil, err
		}
		return Ranges(a, b, c, d), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized mapper type %d in %q", format.ErrConfig, kind, spec)
	}
}

// Identity returns the whole line
func Identity(line string) string { return line }

// Constant maps every line to id
func Constant(id string) Func {
	return func(string) string { return id }
}

// Range returns line[a:b]. Bounds past the end of the line are clamped, so
// short lines yield a short identifier.
func Range(a, b int) Func {
	return func(line string) string { return slice(line, a, b) }
}

// Ranges returns line[a:b] + line[c:d], clamped like Range
func Ranges(a, b, c, d int) Func {
	return func(line string) string { return slice(line, a, b) + slice(line, c, d) }
}

func slice(s string, a, b int) string {
	a = min(a, len(s))
	b = min(b, len(s))
	return s[a:b]
}

func parseRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(s, "..")
	if !ok {
		return 0, 0, fmt.Errorf("%w: range %q is not <a>..<b>", format.ErrConfig, s)
	}
	a, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: range %q: bad lower bound", format.ErrConfig, s)
	}
	b, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: range %q: bad upper bound", format.ErrConfig, s)
	}
	if a > b {
		return 0, 0, fmt.Errorf("%w: range %q: lower bound above upper bound", format.ErrConfig, s)
	}
	return a, b, nil
}
