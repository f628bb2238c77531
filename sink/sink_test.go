package sink_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/record"
	"github.com/wilhasse/go-rbf/schema"
	"github.com/wilhasse/go-rbf/sink"
)

func testLayout(t *testing.T) *schema.Layout {
	t.Helper()
	field := func(name, length string) schema.Event {
		return schema.NewEvent(schema.ElemField, "name", name, "description", name, "type", "A", "length", length)
	}
	layout, err := schema.Load(schema.NewSliceSource(
		schema.NewEvent(schema.ElemFieldType, "name", "A", "type", "string"),
		schema.NewEvent(schema.ElemRecord, "name", "DP", "description", "duplicates"),
		field("ID", "2"), field("F5", "5"), field("F5", "5"),
		schema.NewEvent(schema.ElemRecord, "name", "NB", "description", "numbers"),
		field("ID", "2"), field("N1", "1"), field("N2", "2"),
	), format.ModeASCII)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return layout
}

func decoded(t *testing.T, layout *schema.Layout, name, line string) *record.Record {
	t.Helper()
	rec, err := layout.MustGet(name)
	if err != nil {
		t.Fatal(err)
	}
	rec.Decode(line)
	return rec
}

func typedLayout(t *testing.T) *schema.Layout {
	t.Helper()
	field := func(name, typ, length string) schema.Event {
		return schema.NewEvent(schema.ElemField, "name", name, "description", name, "type", typ, "length", length)
	}
	layout, err := schema.Load(schema.NewSliceSource(
		schema.NewEvent(schema.ElemFieldType, "name", "A", "type", "string"),
		schema.NewEvent(schema.ElemFieldType, "name", "I", "type", "integer"),
		schema.NewEvent(schema.ElemFieldType, "name", "N", "type", "decimal"),
		schema.NewEvent(schema.ElemFieldType, "name", "D", "type", "date"),
		schema.NewEvent(schema.ElemRecord, "name", "TY", "description", "typed"),
		field("ID", "A", "2"), field("QTY", "I", "4"), field("PRICE", "N", "4"),
		field("DAY", "D", "8"), field("LEFT", "I", "3"), field("BAD", "I", "2"),
	), format.ModeASCII)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return layout
}

const typedLine = "TY0042 3,520240229   x1"

func TestTypedValue(t *testing.T) {
	rec := decoded(t, typedLayout(t), "TY", typedLine)
	day := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	want := []any{"TY", int64(42), 3.5, day, "", "x1"}
	for i, f := range rec.Fields() {
		got := sink.TypedValue(f)
		if tm, ok := got.(time.Time); ok && tm.Equal(day) {
			continue
		}
		if got != want[i] {
			t.Fatalf("%s: got %#v want %#v", f.Name, got, want[i])
		}
	}
}

func TestJSONLines_Typed(t *testing.T) {
	var buf bytes.Buffer
	s := sink.NewJSONLines(&buf, "")
	if err := s.Write(context.Background(), decoded(t, typedLayout(t), "TY", typedLine)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var got sink.JSONRecord
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := []any{nil, float64(42), 3.5, "2024-02-29T00:00:00Z", nil, nil}
	for i, f := range got.Fields {
		if f.Typed != want[i] {
			t.Fatalf("%s: typed=%#v want %#v", f.Name, f.Typed, want[i])
		}
	}
	if got.Fields[1].Value != "0042" {
		t.Fatalf("value=%q", got.Fields[1].Value)
	}
}

func TestDocument_Typed(t *testing.T) {
	doc := sink.Document(decoded(t, typedLayout(t), "TY", typedLine), "")
	if doc[3].Key != "QTY" || doc[3].Value != int64(42) || doc[4].Value != 3.5 || doc[7].Value != "x1" {
		t.Fatalf("doc=%v", doc)
	}
	if _, ok := doc[5].Value.(time.Time); !ok {
		t.Fatalf("DAY=%#v", doc[5].Value)
	}
}

func TestColumnsAndValues(t *testing.T) {
	layout := testLayout(t)
	rec := decoded(t, layout, "DP", "DPAAA  BBBBB")
	if got := sink.Columns(rec); !reflect.DeepEqual(got, []string{"ID", "F5", "F5_1"}) {
		t.Fatalf("columns=%v", got)
	}
	if got := sink.Values(rec); !reflect.DeepEqual(got, []string{"DP", "AAA", "BBBBB"}) {
		t.Fatalf("values=%v", got)
	}
}

func TestJSONLines(t *testing.T) {
	layout := testLayout(t)
	var buf bytes.Buffer
	s := sink.NewJSONLines(&buf, "run-1")
	ctx := context.Background()

	if err := s.Write(ctx, decoded(t, layout, "DP", "DPAAAAABBBBB")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, decoded(t, layout, "NB", "NB122")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%q", lines)
	}
	var got sink.JSONRecord
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := sink.JSONRecord{Run: "run-1", Record: "DP", Fields: []sink.JSONField{
		{Name: "ID", Value: "DP"}, {Name: "F5", Value: "AAAAA"}, {Name: "F5", Value: "BBBBB"},
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}

	ctx2, cancel := context.WithCancel(ctx)
	cancel()
	if err := sink.NewJSONLines(&buf, "").Write(ctx2, decoded(t, layout, "NB", "NB122")); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled err=%v", err)
	}
}

func TestSQL_SQLite(t *testing.T) {
	layout := testLayout(t)
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	s, err := sink.NewSQL(ctx, db, sink.DialectSQLite, layout, "run-1")
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	for _, line := range []string{"DPAAAAABBBBB", "DPCCCCCDDDDD"} {
		if err := s.Write(ctx, decoded(t, layout, "DP", line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := s.Write(ctx, decoded(t, layout, "NB", "NB1 2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s.Written() != 3 {
		t.Fatalf("written=%d", s.Written())
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT "_run", "ID", "F5", "F5_1" FROM "DP" ORDER BY "F5"`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var got []string
	for rows.Next() {
		var run, id, f5, f51 string
		if err := rows.Scan(&run, &id, &f5, &f51); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, strings.Join([]string{run, id, f5, f51}, "|"))
	}
	if want := []string{"run-1|DP|AAAAA|BBBBB", "run-1|DP|CCCCC|DDDDD"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows=%v", got)
	}

	var n2 string
	if err := db.QueryRowContext(ctx, `SELECT "N2" FROM "NB"`).Scan(&n2); err != nil || n2 != "2" {
		t.Fatalf("N2=%q err=%v", n2, err)
	}
}

func TestSQL_UnknownRecord(t *testing.T) {
	layout := testLayout(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	s, err := sink.OpenSQL(ctx, sink.DialectSQLite, path, layout, "run-2")
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	other := testLayout(t)
	other.AddRecord(mustRecord(t, "ZZ"))
	zz, _ := other.Get("ZZ")
	if err := s.Write(ctx, zz); !errors.Is(err, format.ErrLookup) {
		t.Fatalf("err=%v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file: %v", err)
	}
}

func mustRecord(t *testing.T, name string) *record.Record {
	t.Helper()
	rec, err := record.New(name, "", 0, format.ModeASCII)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestDialect(t *testing.T) {
	layout := testLayout(t)
	dp, _ := layout.Get("DP")

	if got := sink.DialectPostgres.Insert(dp); got != `INSERT INTO "DP" ("_run", "ID", "F5", "F5_1") VALUES ($1, $2, $3, $4)` {
		t.Fatalf("postgres insert=%s", got)
	}
	if got := sink.DialectMySQL.Insert(dp); got != "INSERT INTO `DP` (`_run`, `ID`, `F5`, `F5_1`) VALUES (?, ?, ?, ?)" {
		t.Fatalf("mysql insert=%s", got)
	}
	if got, err := sink.DialectSQLite.CreateTable(dp); err != nil || got != `CREATE TABLE IF NOT EXISTS "DP" ("_run" TEXT, "ID" TEXT, "F5" TEXT, "F5_1" TEXT)` {
		t.Fatalf("sqlite ddl=%s err=%v", got, err)
	}
	if _, err := sink.OpenSQL(context.Background(), sink.Dialect("oracle"), "", layout, ""); !errors.Is(err, format.ErrConfig) {
		t.Fatalf("err=%v", err)
	}
}

func TestDialect_ColumnCollision(t *testing.T) {
	field := func(name string) schema.Event {
		return schema.NewEvent(schema.ElemField, "name", name, "description", name, "type", "A", "length", "1")
	}
	for _, names := range [][]string{{"F5", "F5", "F5_1"}, {"ID", "_run"}} {
		events := []schema.Event{
			schema.NewEvent(schema.ElemFieldType, "name", "A", "type", "string"),
			schema.NewEvent(schema.ElemRecord, "name", "CC", "description", "collision"),
		}
		for _, n := range names {
			events = append(events, field(n))
		}
		layout, err := schema.Load(schema.NewSliceSource(events...), format.ModeASCII)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		cc, _ := layout.Get("CC")
		if _, err := sink.DialectSQLite.CreateTable(cc); !errors.Is(err, format.ErrConfig) {
			t.Fatalf("%v: err=%v", names, err)
		}

		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := sink.NewSQL(context.Background(), db, sink.DialectSQLite, layout, ""); !errors.Is(err, format.ErrConfig) {
			t.Fatalf("%v: NewSQL err=%v", names, err)
		}
		db.Close()
	}
}

func TestSQL_AbortRollsBack(t *testing.T) {
	layout := testLayout(t)
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	first, err := sink.NewSQL(ctx, db, sink.DialectSQLite, layout, "run-1")
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	if err := first.Write(ctx, decoded(t, layout, "DP", "DPAAAAABBBBB")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := first.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := sink.NewSQL(ctx, db, sink.DialectSQLite, layout, "run-2")
	if err != nil {
		t.Fatalf("NewSQL: %v", err)
	}
	for _, line := range []string{"DPCCCCCDDDDD", "DPEEEEEFFFFF"} {
		if err := second.Write(ctx, decoded(t, layout, "DP", line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := second.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	var runs []string
	rows, err := db.QueryContext(ctx, `SELECT "_run" FROM "DP"`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			t.Fatalf("scan: %v", err)
		}
		runs = append(runs, run)
	}
	if !reflect.DeepEqual(runs, []string{"run-1"}) {
		t.Fatalf("runs=%v", runs)
	}
}

func TestMongo_AbortDropsPending(t *testing.T) {
	layout := testLayout(t)
	ctx := context.Background()

	inserted := 0
	m := sink.NewMongoFunc(func(_ context.Context, docs []any) error {
		inserted += len(docs)
		return nil
	}, "", 2)
	for _, line := range []string{"DPAAAAABBBBB", "DPCCCCCDDDDD", "DPEEEEEFFFFF"} {
		if err := m.Write(ctx, decoded(t, layout, "DP", line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := m.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if inserted != 2 || m.Written() != 2 {
		t.Fatalf("inserted=%d written=%d", inserted, m.Written())
	}
}

func TestJSONLines_AbortDropsBuffered(t *testing.T) {
	layout := testLayout(t)
	var buf bytes.Buffer
	s := sink.NewJSONLines(&buf, "")
	if err := s.Write(context.Background(), decoded(t, layout, "NB", "NB122")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Abort(context.Background()); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("buf=%q", buf.String())
	}
}

func TestMongo_Batches(t *testing.T) {
	layout := testLayout(t)
	ctx := context.Background()

	var batches [][]any
	m := sink.NewMongoFunc(func(_ context.Context, docs []any) error {
		batches = append(batches, docs)
		return nil
	}, "run-3", 2)

	for _, line := range []string{"DPAAAAABBBBB", "DPCCCCCDDDDD", "DPEEEEEFFFFF"} {
		if err := m.Write(ctx, decoded(t, layout, "DP", line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if len(batches) != 1 || m.Written() != 2 {
		t.Fatalf("batches=%d written=%d", len(batches), m.Written())
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(batches) != 2 || len(batches[1]) != 1 || m.Written() != 3 {
		t.Fatalf("batches=%v", batches)
	}

	first := batches[0][0].(bson.D)
	want := bson.D{{Key: "_run", Value: "run-3"}, {Key: "record", Value: "DP"},
		{Key: "ID", Value: "DP"}, {Key: "F5", Value: "AAAAA"}, {Key: "F5_1", Value: "BBBBB"}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("doc=%v", first)
	}
	// documents are copies: later decodes do not change them
	if second := batches[0][1].(bson.D); second[3].Value != "CCCCC" {
		t.Fatalf("doc=%v", second)
	}
}

func TestMongo_InsertError(t *testing.T) {
	layout := testLayout(t)
	boom := errors.New("boom")
	m := sink.NewMongoFunc(func(context.Context, []any) error { return boom }, "", 0)
	if err := m.Write(context.Background(), decoded(t, layout, "NB", "NB122")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := m.Close(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestDatabaseFromURI(t *testing.T) {
	cases := map[string]string{
		"mongodb://localhost:27017":                        "rbf",
		"mongodb://localhost:27017/":                       "rbf",
		"mongodb://user:p@ss@localhost/files?authSource=x": "files",
		"mongodb+srv://cluster.example.net/data":           "data",
	}
	for uri, want := range cases {
		if got := sink.DatabaseFromURI(uri); got != want {
			t.Fatalf("%s: got %q want %q", uri, got, want)
		}
	}
}

func TestOpen(t *testing.T) {
	layout := testLayout(t)
	ctx := context.Background()
	if _, err := sink.Open(ctx, "kafka", "", layout, ""); !errors.Is(err, format.ErrConfig) {
		t.Fatalf("err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := sink.Open(ctx, "jsonl", path, layout, "run-4")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Write(ctx, decoded(t, layout, "NB", "NB122")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), `"record":"NB"`) {
		t.Fatalf("data=%s err=%v", data, err)
	}
}
