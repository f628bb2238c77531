// layout.go - Layout catalog: field types and record templates of a file
package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wilhasse/go-rbf/column"
	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/record"
)

// Layout describes every record type of a fixed-width file
type Layout struct {
	Source      string      // File the layout was loaded from, if any
	RecLength   int         // Uniform record length, 0 when records differ
	Version     string      // Layout version
	Description string      // Free text description
	Schema      string      // Schema name
	IgnoreLine  string      // Regexp of lines to skip when reading
	SkipField   string      // Comma-separated field names removed after load
	Mode        format.Mode // Addressing mode of every record template

	records map[string]*record.Record
	order   []string
	types   map[string]*column.FieldType
}

// NewLayout creates an empty layout
func NewLayout(mode format.Mode) *Layout {
	return &Layout{
		Mode:    mode,
		records: make(map[string]*record.Record),
		types:   make(map[string]*column.FieldType),
	}
}

// AddType registers a field type
func (l *Layout) AddType(ft *column.FieldType) error {
	if _, exists := l.types[ft.ID]; exists {
		return fmt.Errorf("%w: field type %s already exists", format.ErrConfig, ft.ID)
	}
	l.types[ft.ID] = ft
	return nil
}

// AddRecord registers a record template
func (l *Layout) AddRecord(rec *record.Record) error {
	if _, exists := l.records[rec.Name]; exists {
		return fmt.Errorf("%w: record %s already exists", format.ErrConfig, rec.Name)
	}
	l.records[rec.Name] = rec
	l.order = append(l.order, rec.Name)
	return nil
}

// Len returns the number of record templates
func (l *Layout) Len() int {
	return len(l.order)
}

// ContainsRecord tests whether a record template with this name exists
func (l *Layout) ContainsRecord(name string) bool {
	_, exists := l.records[name]
	return exists
}

// ContainsField tests whether any record template has a field with this name
func (l *Layout) ContainsField(name string) bool {
	for _, rec := range l.records {
		if rec.ContainsField(name) {
			return true
		}
	}
	return false
}

// Get returns a record template by name
func (l *Layout) Get(name string) (*record.Record, bool) {
	rec, exists := l.records[name]
	return rec, exists
}

// MustGet returns a record template by name or a lookup error
func (l *Layout) MustGet(name string) (*record.Record, error) {
	rec, exists := l.records[name]
	if !exists {
		return nil, fmt.Errorf("%w: record %s not found in layout", format.ErrLookup, name)
	}
	return rec, nil
}

// Type returns a field type by id
func (l *Layout) Type(id string) (*column.FieldType, bool) {
	ft, exists := l.types[id]
	return ft, exists
}

// Records returns the record templates in declaration order
func (l *Layout) Records() []*record.Record {
	out := make([]*record.Record, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.records[name])
	}
	return out
}

// RecordNames returns the record names in declaration order
func (l *Layout) RecordNames() []string {
	return slices.Clone(l.order)
}

// ValidationError reports the first record whose length disagrees with the
// layout
type ValidationError struct {
	Record     string
	Expected   int
	Calculated int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: record %s: expected length %d, calculated %d",
		format.ErrValidation, e.Record, e.Expected, e.Calculated)
}

func (e *ValidationError) Unwrap() error { return format.ErrValidation }

// Validate checks record lengths. With a uniform length, every template must
// cover exactly that length; otherwise each template must match its own
// declared length. The result is informational: loading never fails on it.
func (l *Layout) Validate() error {
	for _, rec := range l.Records() {
		expected := rec.DeclaredLength
		if l.RecLength != 0 {
			expected = l.RecLength
		}
		if rec.CalculatedLength != expected {
			return &ValidationError{Record: rec.Name, Expected: expected, Calculated: rec.CalculatedLength}
		}
	}
	return nil
}

// Remove deletes every field with one of these names from every template.
// Unknown names are ignored.
func (l *Layout) Remove(names ...string) {
	if len(names) == 0 {
		return
	}
	for _, rec := range l.records {
		rec.Remove(func(f *record.Field) bool { return slices.Contains(names, f.Name) })
	}
}

// SetSkipField stores a comma-separated list of field names and removes them
func (l *Layout) SetSkipField(spec string) {
	l.SkipField = spec
	l.Remove(splitList(spec)...)
}

// Clone returns a deep copy of the layout. Field types are shared.
func (l *Layout) Clone() *Layout {
	c := *l
	c.order = slices.Clone(l.order)
	c.records = make(map[string]*record.Record, len(l.records))
	for name, rec := range l.records {
		c.records[name] = rec.Clone()
	}
	c.types = make(map[string]*column.FieldType, len(l.types))
	for id, ft := range l.types {
		c.types[id] = ft
	}
	return &c
}

// String returns a summary of the layout and its records
func (l *Layout) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Layout: %s (schema=%q version=%q mode=%s reclength=%d)\n",
		l.Source, l.Schema, l.Version, l.Mode, l.RecLength)
	for _, rec := range l.Records() {
		fmt.Fprintf(&sb, "  %s: %d fields, declared=%d calculated=%d\n",
			rec.Name, rec.Count(), rec.DeclaredLength, rec.CalculatedLength)
	}
	return sb.String()
}

// Describe returns the full description of every record template
func (l *Layout) Describe() string {
	var sb strings.Builder
	for _, rec := range l.Records() {
		sb.WriteString(rec.Describe())
	}
	return sb.String()
}

func splitList(spec string) []string {
	var out []string
	for _, s := range strings.Split(spec, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
