// yaml.go - YAML layout documents as schema events
package schema

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wilhasse/go-rbf/format"
)

// yamlLayout is the YAML form of a layout:
//
//	meta: {reclength: 0, version: "1.0"}
//	fieldtypes:
//	  - {name: A, type: string}
//	records:
//	  - name: LL
//	    description: letters
//	    fields:
//	      - {name: ID, description: id, type: A, length: 2}
type yamlLayout struct {
	Meta       map[string]string   `yaml:"meta"`
	FieldTypes []map[string]string `yaml:"fieldtypes"`
	Records    []yamlRecord        `yaml:"records"`
}

type yamlRecord struct {
	Attrs  map[string]string   `yaml:",inline"`
	Fields []map[string]string `yaml:"fields"`
}

// YAMLSource emits meta, then field types, then each record followed by its
// fields. The document is decoded on the first call to Next.
type YAMLSource struct {
	r       io.Reader
	events  []Event
	pos     int
	decoded bool
	err     error
}

// NewYAMLSource creates a source reading r
func NewYAMLSource(r io.Reader) *YAMLSource {
	return &YAMLSource{r: r}
}

// Next returns the next event or io.EOF
func (s *YAMLSource) Next() (Event, error) {
	if !s.decoded {
		s.decoded = true
		s.events, s.err = decodeYAML(s.r)
	}
	if s.err != nil {
		return Event{}, s.err
	}
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func decodeYAML(r io.Reader) ([]Event, error) {
	var doc yamlLayout
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: yaml layout: %v", format.ErrConfig, err)
	}

	var events []Event
	if doc.Meta != nil {
		events = append(events, Event{Name: ElemMeta, Attrs: doc.Meta})
	}
	for _, ft := range doc.FieldTypes {
		events = append(events, Event{Name: ElemFieldType, Attrs: ft})
	}
	for _, rec := range doc.Records {
		attrs := rec.Attrs
		if attrs == nil {
			attrs = map[string]string{}
		}
		events = append(events, Event{Name: ElemRecord, Attrs: attrs})
		for _, f := range rec.Fields {
			events = append(events, Event{Name: ElemField, Attrs: f})
		}
	}
	return events, nil
}
