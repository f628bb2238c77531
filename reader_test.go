package gorbf_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	gorbf "github.com/wilhasse/go-rbf"
	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/mapper"
	"github.com/wilhasse/go-rbf/schema"
)

const (
	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "123456789"
	greek   = "αβγδεζηθικλμνξοπρστυφχψω"
)

var idMapper = mapper.Range(0, 2)

func repeated(id, chars string) string {
	var sb strings.Builder
	sb.WriteString(id)
	for i, c := range []rune(chars) {
		sb.WriteString(strings.Repeat(string(c), i+1))
	}
	return sb.String()
}

var (
	lineLL = repeated("LL", letters)
	lineNB = repeated("NB", digits)
	lineDP = "DPAAAAABBBBBCCCCCDDDDDEEEEE"
	lineGL = repeated("GL", greek)
)

func writeData(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return path
}

func openReader(t *testing.T, path string, mode format.Mode) *gorbf.Reader {
	t.Helper()
	layout, err := schema.LoadFile("testdata/test.xml", mode)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	r, err := gorbf.NewReader(path, layout, idMapper)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReader_Lazy(t *testing.T) {
	path := writeData(t, "lazy.data", lineLL, "ZZ unknown record", lineNB)
	r := openReader(t, path, format.ModeASCII)
	if r.Laziness() != gorbf.Lazy {
		t.Fatalf("default laziness=%s", r.Laziness())
	}

	rec, err := r.Next()
	if err != nil || rec.Name != "LL" {
		t.Fatalf("first rec=%v err=%v", rec, err)
	}
	if v, _ := rec.GetValue("W5"); v != "EEEEE" {
		t.Fatalf("W5=%q", v)
	}
	rec, err = r.Next()
	if err != nil || rec.Name != "NB" {
		t.Fatalf("second rec=%v err=%v", rec, err)
	}
	if r.LinesRead() != 3 {
		t.Fatalf("lines read=%d", r.LinesRead())
	}
	for i := 0; i < 3; i++ {
		if rec, err := r.Next(); rec != nil || !errors.Is(err, io.EOF) {
			t.Fatalf("after end: rec=%v err=%v", rec, err)
		}
	}
}

func TestReader_Stringent(t *testing.T) {
	path := writeData(t, "stringent.data", lineLL, "ZZ unknown record", lineNB)
	r := openReader(t, path, format.ModeASCII)
	r.SetLaziness(gorbf.Stringent)

	if rec, err := r.Next(); err != nil || rec.Name != "LL" {
		t.Fatalf("first rec=%v err=%v", rec, err)
	}
	_, err := r.Next()
	if !errors.Is(err, format.ErrClassification) || !strings.Contains(err.Error(), `"ZZ"`) {
		t.Fatalf("err=%v", err)
	}
	// terminal: the third line is never read
	if _, err2 := r.Next(); !errors.Is(err2, format.ErrClassification) {
		t.Fatalf("after failure err=%v", err2)
	}
	if r.LinesRead() != 2 {
		t.Fatalf("lines read=%d", r.LinesRead())
	}
}

func TestReader_ASCIIFile(t *testing.T) {
	path := writeData(t, "test_ascii.data", lineLL, lineNB, lineDP, lineLL)
	r := openReader(t, path, format.ModeASCII)

	names := []string{}
	for rec, err := range r.All() {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		names = append(names, rec.Name)
		if id, _ := rec.GetValue("ID"); id != rec.Name {
			t.Fatalf("ID=%q record=%s", id, rec.Name)
		}
		switch rec.Name {
		case "LL":
			for i, l := range letters {
				v, _ := rec.GetValue("W" + strconv.Itoa(i+1))
				if v != strings.Repeat(string(l), i+1) {
					t.Fatalf("W%d=%q", i+1, v)
				}
			}
		case "NB":
			for i, n := range digits {
				v, _ := rec.GetValue("N" + strconv.Itoa(i+1))
				if v != strings.Repeat(string(n), i+1) {
					t.Fatalf("N%d=%q", i+1, v)
				}
			}
		case "DP":
			for i, want := range []string{"AAAAA", "BBBBB", "CCCCC", "DDDDD"} {
				if v := rec.Get("F5")[i].Value(); v != want {
					t.Fatalf("F5[%d]=%q", i, v)
				}
			}
		}
	}
	if got := strings.Join(names, ","); got != "LL,NB,DP,LL" {
		t.Fatalf("names=%s", got)
	}
	if r.FileSize() != int64(len(lineLL)*2+len(lineNB)+len(lineDP)+4) {
		t.Fatalf("file size=%d", r.FileSize())
	}
}

func TestReader_UTF8File(t *testing.T) {
	path := writeData(t, "test_utf8.data", lineGL, lineDP, lineGL)
	r := openReader(t, path, format.ModeUTF8)

	n := 0
	for rec, err := range r.All() {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if rec.Name != "GL" {
			continue
		}
		n++
		for i, l := range []rune(greek) {
			v, _ := rec.GetValue("G" + strconv.Itoa(i+1))
			if v != strings.Repeat(string(l), i+1) {
				t.Fatalf("G%d=%q", i+1, v)
			}
		}
	}
	if n != 2 {
		t.Fatalf("GL records=%d", n)
	}
}

func TestReader_TemplatesAreReused(t *testing.T) {
	other := "DPZZZZZYYYYYXXXXXWWWWWVVVVV"
	path := writeData(t, "reuse.data", lineDP, other)
	r := openReader(t, path, format.ModeASCII)

	first, _ := r.Next()
	kept := first.Clone()
	second, _ := r.Next()
	if first != second {
		t.Fatalf("distinct records returned for the same identifier")
	}
	if v, _ := first.GetValue("F5"); v != "ZZZZZ" {
		t.Fatalf("stale view=%q", v)
	}
	if v, _ := kept.GetValue("F5"); v != "AAAAA" {
		t.Fatalf("clone=%q", v)
	}
}

func TestReader_NextRecordIDAndCount(t *testing.T) {
	path := writeData(t, "ids.data", lineLL, lineNB, lineNB, "?? noise", lineDP)
	r := openReader(t, path, format.ModeASCII)

	id, err := r.NextRecordID()
	if err != nil || id != "LL" {
		t.Fatalf("id=%q err=%v", id, err)
	}
	counts, err := r.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if counts["NB"] != 2 || counts["DP"] != 1 || counts["LL"] != 0 || len(counts) != 2 {
		t.Fatalf("counts=%v", counts)
	}
	if _, err := r.NextRecordID(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v", err)
	}
}

func TestReader_LineTerminators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.data")
	data := lineDP + "\r\n" + "DP"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	r := openReader(t, path, format.ModeASCII)

	rec, err := r.Next()
	if err != nil || rec.Value() != lineDP || r.CharsRead() != len(lineDP)+2 {
		t.Fatalf("rec=%v chars=%d err=%v", rec, r.CharsRead(), err)
	}
	// last line has no terminator and is shorter than the record
	rec, err = r.Next()
	if err != nil || r.CharsRead() != 2 {
		t.Fatalf("rec=%v chars=%d err=%v", rec, r.CharsRead(), err)
	}
	if v, _ := rec.GetValue("F5"); v != "" {
		t.Fatalf("F5=%q", v)
	}
}

func TestReader_IgnoreLine(t *testing.T) {
	path := writeData(t, "ignore.data", "# header", lineNB, "# trailer")
	layout, _ := schema.LoadFile("testdata/test.xml", format.ModeASCII)
	layout.IgnoreLine = "^#"

	r, err := gorbf.NewReader(path, layout, idMapper)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	r.SetLaziness(gorbf.Stringent)

	if rec, err := r.Next(); err != nil || rec.Name != "NB" {
		t.Fatalf("rec=%v err=%v", rec, err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v", err)
	}
	if r.LinesRead() != 3 {
		t.Fatalf("lines read=%d", r.LinesRead())
	}

	layout.IgnoreLine = "(["
	if _, err := gorbf.NewReader(path, layout, idMapper); !errors.Is(err, format.ErrConfig) {
		t.Fatalf("bad pattern err=%v", err)
	}
}

func TestReader_LinesLongerThanBuffer(t *testing.T) {
	path := writeData(t, "long.data", lineLL, lineDP, lineLL)
	layout, _ := schema.LoadFile("testdata/test.xml", format.ModeASCII)
	layout.RecLength = 10

	r, err := gorbf.NewReader(path, layout, idMapper)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	for _, want := range []string{"LL", "DP", "LL"} {
		rec, err := r.Next()
		if err != nil || rec.Name != want {
			t.Fatalf("rec=%v err=%v", rec, err)
		}
		if want == "LL" {
			if v, _ := rec.GetValue("W26"); v != strings.Repeat("Z", 26) {
				t.Fatalf("W26=%q", v)
			}
		}
	}
}

func TestReader_Compressed(t *testing.T) {
	content := []byte(lineLL + "\n" + lineDP + "\n")

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(content)
	zw.Close()

	var zs bytes.Buffer
	enc, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatal(err)
	}
	enc.Write(content)
	enc.Close()

	for name, data := range map[string][]byte{"data.gz": gz.Bytes(), "data.zst": zs.Bytes()} {
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		r := openReader(t, path, format.ModeASCII)
		r.SetLaziness(gorbf.Stringent)
		counts, err := r.Count()
		if err != nil || counts["LL"] != 1 || counts["DP"] != 1 {
			t.Fatalf("%s counts=%v err=%v", name, counts, err)
		}
		if r.FileSize() != int64(len(data)) {
			t.Fatalf("%s file size=%d", name, r.FileSize())
		}
	}

	if gorbf.CompressionFor("x.GZ") != gorbf.CompressionGzip || gorbf.CompressionFor("x.txt") != gorbf.CompressionNone {
		t.Fatalf("CompressionFor mismatch")
	}
}

func TestReader_DisableDecompression(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write([]byte(lineDP + "\n"))
	zw.Close()

	path := filepath.Join(t.TempDir(), "raw.gz")
	if err := os.WriteFile(path, gz.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	r := openReader(t, path, format.ModeASCII)
	r.DisableDecompression()
	r.SetLaziness(gorbf.Stringent)
	if _, err := r.Next(); !errors.Is(err, format.ErrClassification) {
		t.Fatalf("err=%v", err)
	}
}

func TestReader_Errors(t *testing.T) {
	layout, _ := schema.LoadFile("testdata/test.xml", format.ModeASCII)
	if _, err := gorbf.NewReader(filepath.Join(t.TempDir(), "missing"), layout, nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
	if _, err := gorbf.NewReader("testdata/test.xml", nil, nil); !errors.Is(err, format.ErrConfig) {
		t.Fatalf("nil layout err=%v", err)
	}

	path := writeData(t, "closed.data", lineDP)
	r := openReader(t, path, format.ModeASCII)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("after close err=%v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestOpen(t *testing.T) {
	path := writeData(t, "open.data", lineNB)
	r, err := gorbf.Open("testdata/test.xml", path, "type:1 map:0..2", gorbf.ModeASCII)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if r.Path() != path || r.Layout().Len() != 4 {
		t.Fatalf("path=%s layout=%s", r.Path(), r.Layout())
	}
	if rec, err := r.Next(); err != nil || rec.Name != "NB" {
		t.Fatalf("rec=%v err=%v", rec, err)
	}

	if _, err := gorbf.Open("testdata/test.xml", path, "type:7 map:x", gorbf.ModeASCII); !errors.Is(err, gorbf.ErrConfig) {
		t.Fatalf("bad mapper err=%v", err)
	}
}
