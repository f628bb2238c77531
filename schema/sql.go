// sql.go - CREATE TABLE statements as schema events
package schema

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/wilhasse/go-rbf/column"
	"github.com/wilhasse/go-rbf/format"
)

// Default widths of temporal columns, matching the default date and time
// formats (%Y%m%d and %H%M%S)
const (
	sqlDateWidth = 8
	sqlTimeWidth = 6
)

// SQLSource describes records with CREATE TABLE statements: each table is a
// record named after the table, each column a contiguous field whose width
// comes from the column length. Field types are named after their base kind
// ("string", "integer", ...) and declared on first use.
type SQLSource struct {
	sql    string
	events []Event
	pos    int
	parsed bool
	err    error
}

// NewSQLSource creates a source over one or more CREATE TABLE statements
func NewSQLSource(sql string) *SQLSource {
	return &SQLSource{sql: sql}
}

// Next returns the next event or io.EOF
func (s *SQLSource) Next() (Event, error) {
	if !s.parsed {
		s.parsed = true
		s.events, s.err = parseSQLLayout(s.sql)
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

func parseSQLLayout(sql string) ([]Event, error) {
	var events []Event
	declared := make(map[column.BaseKind]bool)

	tokenizer := sqlparser.NewStringTokenizer(sql)
	for {
		stmt, err := sqlparser.ParseNext(tokenizer)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse SQL failed: %v", format.ErrConfig, err)
		}

		ddl, ok := stmt.(*sqlparser.DDL)
		if !ok || ddl.Action != sqlparser.CreateStr || ddl.TableSpec == nil {
			continue
		}

		table := ddl.NewName.Name.String()
		var fields []Event
		total := 0
		for _, col := range ddl.TableSpec.Columns {
			kind, width, err := sqlColumn(col)
			if err != nil {
				return nil, fmt.Errorf("%w: table %s column %s: %v", format.ErrConfig, table, col.Name.String(), err)
			}
			if !declared[kind] {
				declared[kind] = true
				events = append(events, NewEvent(ElemFieldType, "name", string(kind), "type", string(kind)))
			}

			desc := col.Name.String()
			if col.Type.Comment != nil {
				desc = string(col.Type.Comment.Val)
			}
			fields = append(fields, NewEvent(ElemField,
				"name", col.Name.String(),
				"description", desc,
				"type", string(kind),
				"length", strconv.Itoa(width)))
			total += width
		}

		events = append(events, NewEvent(ElemRecord,
			"name", table, "description", table, "length", strconv.Itoa(total)))
		events = append(events, fields...)
	}
	return events, nil
}

// sqlColumn maps a column definition to a base kind and a field width
func sqlColumn(col *sqlparser.ColumnDefinition) (column.BaseKind, int, error) {
	length := 0
	if col.Type.Length != nil {
		n, err := strconv.Atoi(string(col.Type.Length.Val))
		if err != nil {
			return "", 0, fmt.Errorf("bad length %q", col.Type.Length.Val)
		}
		length = n
	}

	switch typ := strings.ToLower(col.Type.Type); typ {
	case "char":
		return column.KindString, max(length, 1), nil
	case "varchar":
		return column.KindString, length, nil
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint":
		if length == 0 {
			return "", 0, fmt.Errorf("%s needs a display width", typ)
		}
		return column.KindInteger, length, nil
	case "decimal", "numeric", "float", "double", "real":
		if length == 0 {
			return "", 0, fmt.Errorf("%s needs a precision", typ)
		}
		return column.KindDecimal, length, nil
	case "date":
		return column.KindDate, sqlDateWidth, nil
	case "time":
		if length == 0 {
			length = sqlTimeWidth
		}
		return column.KindTime, length, nil
	default:
		return "", 0, fmt.Errorf("type %s has no fixed width", typ)
	}
}
