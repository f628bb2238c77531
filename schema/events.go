// events.go - Schema events and the sources producing them
package schema

import (
	"fmt"
	"io"
	"strconv"

	"github.com/wilhasse/go-rbf/format"
)

// Element names understood by the loader
const (
	ElemMeta      = "meta"
	ElemFieldType = "fieldtype"
	ElemRecord    = "record"
	ElemField     = "field"
)

// Event is one schema element: a tag name and its attributes
type Event struct {
	Name  string
	Attrs map[string]string
}

// NewEvent builds an event from alternating key, value pairs
func NewEvent(name string, kv ...string) Event {
	ev := Event{Name: name, Attrs: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attrs[kv[i]] = kv[i+1]
	}
	return ev
}

// Required returns a mandatory attribute
func (e Event) Required(key string) (string, error) {
	v, ok := e.Attrs[key]
	if !ok {
		return "", fmt.Errorf("%w: <%s> element: missing attribute %q", format.ErrConfig, e.Name, key)
	}
	return v, nil
}

// Int returns an integer attribute and whether it was present
func (e Event) Int(key string) (int, bool, error) {
	v, ok := e.Attrs[key]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, true, fmt.Errorf("%w: <%s> element: attribute %q=%q is not an integer",
			format.ErrConfig, e.Name, key, v)
	}
	return n, true, nil
}

// Source produces schema events in document order. Next returns io.EOF
// once the document is exhausted.
type Source interface {
	Next() (Event, error)
}

// SliceSource replays a fixed list of events
type SliceSource struct {
	events []Event
	pos    int
}

// NewSliceSource creates a source over events
func NewSliceSource(events ...Event) *SliceSource {
	return &SliceSource{events: events}
}

// Next returns the next event or io.EOF
func (s *SliceSource) Next() (Event, error) {
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}
