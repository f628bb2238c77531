// xml.go - XML layout documents as schema events
package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/wilhasse/go-rbf/format"
)

// XMLSource turns every start element of an XML document into an event.
// Nesting is ignored: the loader only relies on document order.
type XMLSource struct {
	dec *xml.Decoder
}

// NewXMLSource creates a source reading r
func NewXMLSource(r io.Reader) *XMLSource {
	return &XMLSource{dec: xml.NewDecoder(r)}
}

// Next returns the next start element or io.EOF
func (s *XMLSource) Next() (Event, error) {
	for {
		tok, err := s.dec.Token()
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		if err != nil {
			return Event{}, fmt.Errorf("%w: xml layout: %v", format.ErrConfig, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		ev := Event{Name: start.Name.Local, Attrs: make(map[string]string, len(start.Attr))}
		for _, a := range start.Attr {
			ev.Attrs[a.Name.Local] = a.Value
		}
		return ev, nil
	}
}
