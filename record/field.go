// field.go - Fixed-width field definition and value storage
package record

import (
	"fmt"
	"strings"

	"github.com/wilhasse/go-rbf/column"
	"github.com/wilhasse/go-rbf/format"
)

// CreationType tells how a field was defined in the layout
type CreationType uint8

const (
	// ByLength fields are contiguous: their position follows the previous field
	ByLength CreationType = iota
	// ByOffset fields carry explicit bounds within the record
	ByOffset
)

func (c CreationType) String() string {
	if c == ByOffset {
		return "ByOffset"
	}
	return "ByLength"
}

// Field is one fixed-width column of a record. Positions are expressed in the
// addressing unit of the owning record (bytes or characters).
type Field struct {
	Name             string            // Field name, may repeat within a record
	Description      string            // Free text description
	Length           int               // Width in units
	Type             *column.FieldType // Shared type entry
	Index            int               // Position within the record (0-based)
	OffsetFromOrigin int               // First unit of the field from the start of the line
	LowerOffset      int               // First unit, inclusive, 0-based
	UpperOffset      int               // Last unit, inclusive, 0-based
	Multiplicity     int               // Occurrence number among same-named fields (0-based)
	CellSize         int               // Display width: max(Length, len(Name))
	CreationType     CreationType

	raw   string // value copied as-is from the line
	value string // blank-stripped value
}

// NewField creates a contiguous field of the given length. Its position is
// computed when it is pushed onto a record.
func NewField(name, description string, ft *column.FieldType, length int) (*Field, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: field with an empty name", format.ErrConstruction)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: field %s has a null length", format.ErrConstruction, name)
	}
	return &Field{
		Name:         name,
		Description:  description,
		Length:       length,
		Type:         ft,
		CellSize:     max(length, len(name)),
		CreationType: ByLength,
	}, nil
}

// NewFieldWithOffset creates a field from its 1-based inclusive bounds, as
// written in layout files. Bounds are kept 0-based internally.
func NewFieldWithOffset(name, description string, ft *column.FieldType, start, end int) (*Field, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: field with an empty name", format.ErrConstruction)
	}
	if start < 1 {
		return nil, fmt.Errorf("%w: field %s: start offset %d, offsets start at 1", format.ErrConstruction, name, start)
	}
	if start > end {
		return nil, fmt.Errorf("%w: field %s: lower offset %d > upper offset %d", format.ErrConstruction, name, start, end)
	}

	length := end - start + 1
	return &Field{
		Name:             name,
		Description:      description,
		Length:           length,
		Type:             ft,
		OffsetFromOrigin: start - 1,
		LowerOffset:      start - 1,
		UpperOffset:      end - 1,
		CellSize:         max(length, len(name)),
		CreationType:     ByOffset,
	}, nil
}

// SetValue stores val verbatim and a blank-stripped copy of it.
func (f *Field) SetValue(val string) {
	f.raw = val
	f.value = strings.TrimSpace(val)
}

// Value returns the blank-stripped value.
func (f *Field) Value() string { return f.value }

// RawValue returns the value exactly as extracted from the line.
func (f *Field) RawValue() string { return f.raw }

// Len returns the field width in units.
func (f *Field) Len() int { return f.Length }

// Typed converts the stripped value according to the field type.
func (f *Field) Typed() (any, error) {
	return column.Parse(f.value, f.Type)
}

// Clone returns a deep copy of the field, including computed offsets and
// the current value. The type entry stays shared.
func (f *Field) Clone() *Field {
	c := *f
	return &c
}

func (f *Field) String() string {
	typ := "<nil>"
	if f.Type != nil {
		typ = f.Type.String()
	}
	return fmt.Sprintf("name: <%s>, description: <%s>, length: <%d>, field type: %s, raw_value=<%s>, str_value=<%s>, offset_from_origin=<%d>, index=<%d>, lower_offset=<%d>, upper_offset=<%d>",
		f.Name, f.Description, f.Length, typ, f.raw, f.value,
		f.OffsetFromOrigin, f.Index, f.LowerOffset, f.UpperOffset)
}
