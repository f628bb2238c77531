// string_parser.go - Parser for string fields
package column

// StringParser returns the trimmed value as is
type StringParser struct {
	BaseParser
}

// Parse returns the trimmed string, or nil when the field is blank
func (p *StringParser) Parse(value string, ft *FieldType) (any, error) {
	v, ok := p.normalize(value)
	if !ok {
		return nil, nil
	}
	return v, nil
}
