// datetime_parser.go - Parser for date and time fields
package column

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeParser handles date and time fields using the strftime format
// carried by the field type
type DateTimeParser struct {
	BaseParser
}

// Parse parses the value with the type's format. A date made only of zeros
// ("00000000") is treated as blank; an all-zero time is midnight.
func (p *DateTimeParser) Parse(value string, ft *FieldType) (any, error) {
	v, ok := p.normalize(value)
	if !ok || (ft.Kind == KindDate && strings.Trim(v, "0") == "") {
		return nil, nil
	}

	layout, err := GoLayout(ft.Format)
	if err != nil {
		return nil, fmt.Errorf("type %s: %w", ft.ID, err)
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q (type %s): %w", ft.Kind, v, ft.ID, err)
	}
	return t, nil
}

// GoLayout converts a strftime format into a Go time layout.
// Supported directives: %Y %y %m %d %H %M %S %D %T %%.
func GoLayout(strftime string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(strftime); i++ {
		c := strftime[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(strftime) {
			return "", fmt.Errorf("dangling %% in format %q", strftime)
		}
		i++
		switch strftime[i] {
		case 'Y':
			sb.WriteString("2006")
		case 'y':
			sb.WriteString("06")
		case 'm':
			sb.WriteString("01")
		case 'd':
			sb.WriteString("02")
		case 'H':
			sb.WriteString("15")
		case 'M':
			sb.WriteString("04")
		case 'S':
			sb.WriteString("05")
		case 'D':
			sb.WriteString("01/02/06")
		case 'T':
			sb.WriteString("15:04:05")
		case '%':
			sb.WriteByte('%')
		default:
			return "", fmt.Errorf("unsupported directive %%%c in format %q", strftime[i], strftime)
		}
	}
	return sb.String(), nil
}
