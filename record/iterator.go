// iterator.go - Field iteration utilities
package record

import (
	"iter"
	"strconv"
)

// All iterates over the fields in order, yielding their index.
func (r *Record) All() iter.Seq2[int, *Field] {
	return func(yield func(int, *Field) bool) {
		for i, f := range r.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Names returns the field names in order, repeated names included.
func (r *Record) Names() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// ColumnName returns a name unique within the record: the field name, with
// "_<multiplicity>" appended for repeated occurrences (F5, F5_1, F5_2).
func (f *Field) ColumnName() string {
	if f.Multiplicity == 0 {
		return f.Name
	}
	return f.Name + "_" + strconv.Itoa(f.Multiplicity)
}
