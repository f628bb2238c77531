// int_parser.go - Parser for integer and decimal fields
package column

import (
	"fmt"
	"strconv"
	"strings"
)

// IntParser handles integer fields
type IntParser struct {
	BaseParser
}

// Parse parses a signed base-10 integer; leading zeros are allowed
func (p *IntParser) Parse(value string, ft *FieldType) (any, error) {
	v, ok := p.normalize(value)
	if !ok {
		return nil, nil
	}
	s, err := p.signed(v)
	if err != nil {
		return nil, fmt.Errorf("parse integer (type %s): %w", ft.ID, err)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse integer %q (type %s): %w", v, ft.ID, err)
	}
	return n, nil
}

// DecimalParser handles decimal fields
type DecimalParser struct {
	BaseParser
}

// Parse parses a decimal number; a comma is accepted as decimal separator
func (p *DecimalParser) Parse(value string, ft *FieldType) (any, error) {
	v, ok := p.normalize(value)
	if !ok {
		return nil, nil
	}
	s, err := p.signed(v)
	if err != nil {
		return nil, fmt.Errorf("parse decimal (type %s): %w", ft.ID, err)
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q (type %s): %w", v, ft.ID, err)
	}
	return f, nil
}
