// type.go - Field type definitions shared by every field of a layout
package column

import (
	"fmt"

	"github.com/wilhasse/go-rbf/format"
)

// BaseKind is the semantic content category of a field.
type BaseKind string

const (
	KindString  BaseKind = "string"
	KindDecimal BaseKind = "decimal"
	KindInteger BaseKind = "integer"
	KindDate    BaseKind = "date"
	KindTime    BaseKind = "time"
)

// Default strftime formats for date and time kinds
const (
	DefaultDateFormat = "%Y%m%d"
	DefaultTimeFormat = "%H%M%S"
)

// IsValid reports whether k is one of the five recognized kinds.
func (k BaseKind) IsValid() bool {
	switch k {
	case KindString, KindDecimal, KindInteger, KindDate, KindTime:
		return true
	default:
		return false
	}
}

// FieldType is a named type entry referenced by fields (e.g. "A" -> string).
// It is shared by pointer between fields and must not be modified once the
// layout is loaded.
type FieldType struct {
	ID      string   // Nickname used by field definitions
	Kind    BaseKind // Base kind
	Format  string   // strftime format for date and time kinds
	Pattern string   // Optional validation pattern, stored only
}

// NewFieldType creates a type entry from its id and base kind name.
func NewFieldType(id, kind string) (*FieldType, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: field type with empty id", format.ErrConstruction)
	}
	if kind == "" {
		return nil, fmt.Errorf("%w: field type %s has an empty base type", format.ErrConstruction, id)
	}
	k := BaseKind(kind)
	if !k.IsValid() {
		return nil, fmt.Errorf("%w: <%s> is not allowed as a field type", format.ErrConfig, kind)
	}

	ft := &FieldType{ID: id, Kind: k}
	switch k {
	case KindDate:
		ft.Format = DefaultDateFormat
	case KindTime:
		ft.Format = DefaultTimeFormat
	}
	return ft, nil
}

// SetDateFormat overrides the format of a date type.
func (ft *FieldType) SetDateFormat(layout string) error {
	if ft.Kind != KindDate {
		return fmt.Errorf("%w: type %s is %s, not date", format.ErrConstruction, ft.ID, ft.Kind)
	}
	ft.Format = layout
	return nil
}

// SetTimeFormat overrides the format of a time type.
func (ft *FieldType) SetTimeFormat(layout string) error {
	if ft.Kind != KindTime {
		return fmt.Errorf("%w: type %s is %s, not time", format.ErrConstruction, ft.ID, ft.Kind)
	}
	ft.Format = layout
	return nil
}

// SetPattern attaches a validation pattern. It is not enforced when decoding.
func (ft *FieldType) SetPattern(pattern string) {
	ft.Pattern = pattern
}

// KindString returns the display form of the base kind, including the format
// for date and time kinds.
func (ft *FieldType) KindString() string {
	switch ft.Kind {
	case KindDate:
		return fmt.Sprintf("Date { %s }", ft.Format)
	case KindTime:
		return fmt.Sprintf("Time { %s }", ft.Format)
	case KindDecimal:
		return "Decimal"
	case KindInteger:
		return "Integer"
	default:
		return "String"
	}
}

func (ft *FieldType) String() string {
	return fmt.Sprintf("id: <%s>, base type: <%s>", ft.ID, ft.KindString())
}
