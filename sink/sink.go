// sink.go - Destinations for decoded records
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wilhasse/go-rbf/column"
	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/record"
	"github.com/wilhasse/go-rbf/schema"
)

// Sink receives decoded records. Write must copy whatever it keeps: the
// record is reused by the reader after Write returns. A run ends with
// exactly one of Close, which keeps the written records, or Abort, which
// discards whatever the destination has not made durable yet.
type Sink interface {
	Write(ctx context.Context, rec *record.Record) error
	Close(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Kinds accepted by Open
const (
	KindJSONLines = "jsonl"
	KindSQLite    = "sqlite"
	KindPostgres  = "postgres"
	KindMySQL     = "mysql"
	KindMongo     = "mongo"
)

// Columns returns the column names of a record, unique within the record:
// repeated fields get a "_<multiplicity>" suffix.
func Columns(rec *record.Record) []string {
	out := make([]string, 0, rec.Count())
	for _, f := range rec.Fields() {
		out = append(out, f.ColumnName())
	}
	return out
}

// Values returns the stripped field values of a record in order
func Values(rec *record.Record) []string {
	out := make([]string, 0, rec.Count())
	for _, f := range rec.Fields() {
		out = append(out, f.Value())
	}
	return out
}

// TypedValue converts the value of f according to its type: int64,
// float64 or time.Time. String fields, blank values and values that do not
// parse fall back to the stripped text.
func TypedValue(f *record.Field) any {
	if f.Type == nil || f.Type.Kind == column.KindString {
		return f.Value()
	}
	v, err := f.Typed()
	if err != nil || v == nil {
		return f.Value()
	}
	return v
}

// Open creates a sink of the given kind. For jsonl, dsn is a file path
// ("" or "-" for stdout); for databases it is the driver connection string.
func Open(ctx context.Context, kind, dsn string, layout *schema.Layout, runID string) (Sink, error) {
	switch strings.ToLower(kind) {
	case KindJSONLines:
		if dsn == "" || dsn == "-" {
			return NewJSONLines(os.Stdout, runID), nil
		}
		f, err := os.Create(dsn)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", dsn, err)
		}
		return NewJSONLines(f, runID), nil
	case KindSQLite, KindPostgres, KindMySQL:
		return OpenSQL(ctx, Dialect(kind), dsn, layout, runID)
	case KindMongo:
		return OpenMongo(ctx, dsn, runID, DefaultBatchSize)
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", format.ErrConfig, kind)
	}
}

// closeIf closes w when it owns a resource other than the standard streams
func closeIf(w io.Writer) error {
	if w == os.Stdout || w == os.Stderr {
		return nil
	}
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
