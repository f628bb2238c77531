// decoder.go - Line decoders for ascii and utf8 records
package record

import (
	"github.com/wilhasse/go-rbf/format"
)

// decoder splits a line into the fields of a record. The implementation is
// chosen once, when the record is created, so decoding never tests the mode
// per field.
type decoder interface {
	decode(r *Record, line string)
}

func decoderFor(mode format.Mode) decoder {
	if mode == format.ModeUTF8 {
		return utf8Decoder{}
	}
	return asciiDecoder{}
}

// asciiDecoder slices fields by byte offsets: every character is one byte.
type asciiDecoder struct{}

func (asciiDecoder) decode(r *Record, line string) {
	s := format.PadLine(line, r.CalculatedLength, format.ModeASCII)
	for _, f := range r.fields {
		f.SetValue(s[f.LowerOffset : f.UpperOffset+1])
	}
}

// utf8Decoder walks the characters of the line for each field. Multi-byte
// characters forbid direct indexing, so each field costs O(position).
type utf8Decoder struct{}

func (utf8Decoder) decode(r *Record, line string) {
	s := format.PadLine(line, r.CalculatedLength, format.ModeUTF8)
	for _, f := range r.fields {
		f.SetValue(runeSlice(s, f.LowerOffset, f.Length))
	}
}

// runeSlice skips skip characters of s and returns the next take ones.
func runeSlice(s string, skip, take int) string {
	start, n := -1, 0
	for i := range s {
		if n == skip {
			start = i
		}
		if n == skip+take {
			return s[start:i]
		}
		n++
	}
	if start < 0 {
		return ""
	}
	return s[start:]
}
