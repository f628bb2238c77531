// errors.go - Error taxonomy shared by all packages
package format

import "errors"

var (
	// ErrConfig: missing or malformed schema attribute, unknown type, malformed mapper grammar.
	ErrConfig = errors.New("configuration error")
	// ErrConstruction: empty name, null length or inverted bounds when building a type, field or record.
	ErrConstruction = errors.New("construction error")
	// ErrLookup: unknown field or record name, index or occurrence out of range.
	ErrLookup = errors.New("lookup error")
	// ErrClassification: a line mapped to an unknown record identifier in stringent mode.
	ErrClassification = errors.New("classification error")
	// ErrValidation: record lengths disagree with the layout. Reported, never fatal.
	ErrValidation = errors.New("validation error")
)
