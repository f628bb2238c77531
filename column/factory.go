// factory.go - Factory for getting appropriate column parser
package column

import (
	"fmt"

	"github.com/wilhasse/go-rbf/format"
)

var (
	stringParser   = &StringParser{}
	intParser      = &IntParser{}
	decimalParser  = &DecimalParser{}
	dateTimeParser = &DateTimeParser{}
)

// GetParser returns the appropriate parser for the base kind
func GetParser(kind BaseKind) Parser {
	switch kind {
	case KindString:
		return stringParser
	case KindInteger:
		return intParser
	case KindDecimal:
		return decimalParser
	case KindDate, KindTime:
		return dateTimeParser
	default:
		return nil
	}
}

// Parse converts a field value using the parser matching the type's kind.
// The result is a string, int64, float64, time.Time, or nil for blank values.
func Parse(value string, ft *FieldType) (any, error) {
	if ft == nil {
		return nil, fmt.Errorf("%w: nil field type", format.ErrLookup)
	}
	parser := GetParser(ft.Kind)
	if parser == nil {
		return nil, fmt.Errorf("%w: no parser for kind %q", format.ErrConfig, ft.Kind)
	}
	return parser.Parse(value, ft)
}
