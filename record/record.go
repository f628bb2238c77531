// record.go - Record template: ordered fields, offsets and decoding
package record

import (
	"fmt"
	"strings"

	"github.com/wilhasse/go-rbf/format"
)

// Record is an ordered list of fields describing one kind of line. A record
// is decoded in place: Decode overwrites the values of its fields, so a
// record returned by a reader is only valid until the next read.
type Record struct {
	Name             string // Record name (the identifier returned by the mapper)
	Description      string // Free text description
	DeclaredLength   int    // Length from the layout, 0 when unspecified
	CalculatedLength int    // Length covered by the fields

	fields []*Field
	mode   format.Mode
	dec    decoder
}

// New creates an empty record decoding lines in the given mode.
func New(name, description string, length int, mode format.Mode) (*Record, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: record with an empty name", format.ErrConstruction)
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: record %s has a negative length", format.ErrConstruction, name)
	}
	return &Record{
		Name:           name,
		Description:    description,
		DeclaredLength: length,
		fields:         make([]*Field, 0),
		mode:           mode,
		dec:            decoderFor(mode),
	}, nil
}

// Mode returns the addressing mode the record was created with.
func (r *Record) Mode() format.Mode { return r.mode }

// Push appends a field, computing its index, bounds and multiplicity, and
// extends the calculated record length.
func (r *Record) Push(f *Field) {
	f.Index = len(r.fields)

	switch f.CreationType {
	case ByLength:
		f.OffsetFromOrigin = r.CalculatedLength
		f.LowerOffset = f.OffsetFromOrigin
		f.UpperOffset = f.OffsetFromOrigin + f.Length - 1
		r.CalculatedLength += f.Length
	case ByOffset:
		// bounds were given by the layout; the record covers the highest one
		r.CalculatedLength = max(r.CalculatedLength, f.UpperOffset+1)
	}

	f.Multiplicity = 0
	for i := len(r.fields) - 1; i >= 0; i-- {
		if r.fields[i].Name == f.Name {
			f.Multiplicity = r.fields[i].Multiplicity + 1
			break
		}
	}

	r.fields = append(r.fields, f)
}

// Decode splits line into the record fields. A line shorter than the record
// is padded with blanks; extra trailing data is ignored.
func (r *Record) Decode(line string) {
	r.dec.decode(r, line)
}

// ContainsField tests whether a field with this name exists.
func (r *Record) ContainsField(name string) bool {
	for _, f := range r.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Count returns the number of fields.
func (r *Record) Count() int { return len(r.fields) }

// Fields returns the fields in order. The slice must not be modified.
func (r *Record) Fields() []*Field { return r.fields }

// At returns the i-th field.
func (r *Record) At(i int) (*Field, error) {
	if i < 0 || i >= len(r.fields) {
		return nil, fmt.Errorf("%w: record %s: index %d out of bounds, field count = %d",
			format.ErrLookup, r.Name, i, len(r.fields))
	}
	return r.fields[i], nil
}

// Filter returns the fields matching pred, or nil when none match.
func (r *Record) Filter(pred func(*Field) bool) []*Field {
	var out []*Field
	for _, f := range r.fields {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}

// Get returns every occurrence of the named field, or nil.
func (r *Record) Get(name string) []*Field {
	return r.Filter(func(f *Field) bool { return f.Name == name })
}

// Retain keeps only the fields matching pred. Bounds of the remaining fields
// are unchanged.
func (r *Record) Retain(pred func(*Field) bool) {
	kept := r.fields[:0]
	for _, f := range r.fields {
		if pred(f) {
			kept = append(kept, f)
		}
	}
	clear(r.fields[len(kept):])
	r.fields = kept
}

// Remove drops the fields matching pred.
func (r *Record) Remove(pred func(*Field) bool) {
	r.Retain(func(f *Field) bool { return !pred(f) })
}

// Value returns the concatenation of all raw field values.
func (r *Record) Value() string {
	var sb strings.Builder
	for _, f := range r.fields {
		sb.WriteString(f.raw)
	}
	return sb.String()
}

// GetValue returns the stripped value of the first field with this name.
func (r *Record) GetValue(name string) (string, error) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.value, nil
		}
	}
	return "", fmt.Errorf("%w: key %s not found in record %s", format.ErrLookup, name, r.Name)
}

// GetValueWithIndex returns the stripped value of the i-th occurrence
// (0-based) of a repeated field.
func (r *Record) GetValueWithIndex(name string, i int) (string, error) {
	fields := r.Get(name)
	if fields == nil {
		return "", fmt.Errorf("%w: key %s not found in record %s", format.ErrLookup, name, r.Name)
	}
	if i < 0 || i >= len(fields) {
		return "", fmt.Errorf("%w: index %d is out of bound for field %s in record %s",
			format.ErrLookup, i, name, r.Name)
	}
	return fields[i].value, nil
}

// Clone returns a deep copy of the record and all its fields.
func (r *Record) Clone() *Record {
	c := *r
	c.fields = make([]*Field, len(r.fields))
	for i, f := range r.fields {
		c.fields[i] = f.Clone()
	}
	return &c
}

// String lists field names and values: (F1='v1',F2='v2').
func (r *Record) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = fmt.Sprintf("%s='%s'", f.Name, f.value)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Describe returns a multi-line description of the record and its fields.
func (r *Record) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: <%s>, description: <%s>\n", r.Name, r.Description)
	for _, f := range r.fields {
		fmt.Fprintf(&sb, "\tfield:<%s>\n", f)
	}
	return sb.String()
}
