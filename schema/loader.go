// loader.go - Build a layout from a stream of schema events
package schema

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wilhasse/go-rbf/column"
	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/record"
)

// LoadOption configures Load
type LoadOption func(*loader)

// WithLogger sets the logger used while loading
func WithLogger(logger *slog.Logger) LoadOption {
	return func(l *loader) {
		if logger != nil {
			l.log = logger
		}
	}
}

type loader struct {
	layout  *Layout
	current *record.Record // record receiving field events, nil before the first record
	log     *slog.Logger
}

// Load consumes every event of src and returns the resulting layout. Field
// events are attached to the most recently declared record. A pending
// skipField list is applied once all events are consumed.
func Load(src Source, mode format.Mode, opts ...LoadOption) (*Layout, error) {
	l := &loader{
		layout: NewLayout(mode),
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := l.handle(ev); err != nil {
			return nil, err
		}
	}

	if l.layout.SkipField != "" {
		l.layout.SetSkipField(l.layout.SkipField)
	}
	l.log.Debug("layout loaded",
		"records", l.layout.Len(), "types", len(l.layout.types), "mode", mode.String())
	return l.layout, nil
}

// LoadFile loads a layout file, choosing the source from its extension:
// .xml, .yaml/.yml or .sql.
func LoadFile(path string, mode format.Mode, opts ...LoadOption) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	var src Source
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xml":
		src = NewXMLSource(f)
	case ".yaml", ".yml":
		src = NewYAMLSource(f)
	case ".sql":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read layout: %w", err)
		}
		src = NewSQLSource(string(data))
	default:
		return nil, fmt.Errorf("%w: unsupported layout extension %q", format.ErrConfig, ext)
	}

	layout, err := Load(src, mode, opts...)
	if err != nil {
		return nil, fmt.Errorf("load layout %s: %w", path, err)
	}
	layout.Source = path
	return layout, nil
}

func (l *loader) handle(ev Event) error {
	switch ev.Name {
	case ElemMeta:
		return l.meta(ev)
	case ElemFieldType:
		return l.fieldType(ev)
	case ElemRecord:
		return l.record(ev)
	case ElemField:
		return l.field(ev)
	default:
		return nil
	}
}

func (l *loader) meta(ev Event) error {
	n, _, err := ev.Int("reclength")
	if err != nil {
		return err
	}
	l.layout.RecLength = n
	l.layout.Version = ev.Attrs["version"]
	l.layout.Description = ev.Attrs["description"]
	l.layout.Schema = ev.Attrs["schema"]
	l.layout.IgnoreLine = ev.Attrs["ignoreLine"]
	l.layout.SkipField = ev.Attrs["skipField"]
	return nil
}

func (l *loader) fieldType(ev Event) error {
	id, err := ev.Required("name")
	if err != nil {
		return err
	}
	kind, err := ev.Required("type")
	if err != nil {
		return err
	}
	ft, err := column.NewFieldType(id, kind)
	if err != nil {
		return err
	}
	if pattern, ok := ev.Attrs["pattern"]; ok {
		ft.SetPattern(pattern)
	}
	if layout, ok := ev.Attrs["format"]; ok {
		switch ft.Kind {
		case column.KindDate:
			err = ft.SetDateFormat(layout)
		case column.KindTime:
			err = ft.SetTimeFormat(layout)
		default:
			err = fmt.Errorf("%w: field type %s: format only applies to date and time", format.ErrConfig, id)
		}
		if err != nil {
			return err
		}
	}
	return l.layout.AddType(ft)
}

func (l *loader) record(ev Event) error {
	name, err := ev.Required("name")
	if err != nil {
		return err
	}
	desc, err := ev.Required("description")
	if err != nil {
		return err
	}
	length, _, err := ev.Int("length")
	if err != nil {
		return err
	}
	rec, err := record.New(name, desc, length, l.layout.Mode)
	if err != nil {
		return err
	}
	if err := l.layout.AddRecord(rec); err != nil {
		return err
	}
	l.current = rec
	return nil
}

func (l *loader) field(ev Event) error {
	name, err := ev.Required("name")
	if err != nil {
		return err
	}
	if l.current == nil {
		return fmt.Errorf("%w: field %s declared before any record", format.ErrConfig, name)
	}
	desc, err := ev.Required("description")
	if err != nil {
		return err
	}
	typeID, err := ev.Required("type")
	if err != nil {
		return err
	}
	ft, ok := l.layout.Type(typeID)
	if !ok {
		return fmt.Errorf("%w: field %s.%s: unknown field type %s", format.ErrConfig, l.current.Name, name, typeID)
	}

	f, err := l.newField(ev, name, desc, ft)
	if err != nil {
		return err
	}
	l.current.Push(f)
	return nil
}

func (l *loader) newField(ev Event, name, desc string, ft *column.FieldType) (*record.Field, error) {
	length, hasLength, err := ev.Int("length")
	if err != nil {
		return nil, err
	}
	if hasLength {
		return record.NewField(name, desc, ft, length)
	}

	start, hasStart, err := firstInt(ev, "start", "lower_offset")
	if err != nil {
		return nil, err
	}
	end, hasEnd, err := firstInt(ev, "end", "upper_offset")
	if err != nil {
		return nil, err
	}
	if !hasStart || !hasEnd {
		return nil, fmt.Errorf("%w: field %s.%s: needs either length or start and end",
			format.ErrConfig, l.current.Name, name)
	}
	return record.NewFieldWithOffset(name, desc, ft, start, end)
}

// firstInt returns the first integer attribute present among keys
func firstInt(ev Event, keys ...string) (int, bool, error) {
	for _, key := range keys {
		n, ok, err := ev.Int(key)
		if ok || err != nil {
			return n, ok, err
		}
	}
	return 0, false, nil
}
