// reader.go - Record reader: classify and decode each line of a data file
package gorbf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/mapper"
	"github.com/wilhasse/go-rbf/record"
	"github.com/wilhasse/go-rbf/schema"
)

// Reader reads a record-based file line by line. Each line is classified by
// the mapper and decoded into the matching record template of the layout.
//
// Templates are reused: the record returned by Next is overwritten by the
// next line with the same identifier. Copy what you need (or Clone the
// record) before calling Next again. A Reader is not safe for concurrent use.
type Reader struct {
	path     string
	layout   *schema.Layout
	mapper   mapper.Func
	laziness Laziness
	ignore   *regexp.Regexp
	log      *slog.Logger

	file       *os.File
	codec      io.Closer
	br         *bufio.Reader
	bufSize    int
	decompress bool
	line       []byte
	fileSize   int64
	linesRead  int64
	charsRead  int
	err        error // terminal error, io.EOF once exhausted
}

// NewReader opens path for reading with the given layout. The layout is
// owned by the reader from now on. A nil mapper uses the whole line as the
// record identifier.
func NewReader(path string, layout *schema.Layout, m mapper.Func) (*Reader, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", format.ErrConfig)
	}
	if m == nil {
		m = mapper.Identity
	}

	var ignore *regexp.Regexp
	if layout.IgnoreLine != "" {
		re, err := regexp.Compile(layout.IgnoreLine)
		if err != nil {
			return nil, fmt.Errorf("%w: ignoreLine pattern %q: %v", format.ErrConfig, layout.IgnoreLine, err)
		}
		ignore = re
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat data file: %w", err)
	}

	bufSize := DefaultBufferSize
	if layout.RecLength > 0 {
		bufSize = layout.RecLength + 1
	}

	return &Reader{
		path:       path,
		layout:     layout,
		mapper:     m,
		laziness:   Lazy,
		ignore:     ignore,
		log:        slog.New(slog.DiscardHandler),
		file:       f,
		bufSize:    bufSize,
		decompress: true,
		fileSize:   st.Size(),
	}, nil
}

// SetLaziness sets how unknown record identifiers are handled
func (r *Reader) SetLaziness(l Laziness) {
	r.laziness = l
}

// SetLogger sets the logger receiving skipped lines and errors
func (r *Reader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.log = logger
	}
}

// DisableDecompression reads .gz and .zst files as they are. It has no
// effect once reading has started.
func (r *Reader) DisableDecompression() {
	r.decompress = false
}

// Layout returns the layout used to decode lines
func (r *Reader) Layout() *schema.Layout { return r.layout }

// Path returns the data file path
func (r *Reader) Path() string { return r.path }

// FileSize returns the size of the data file on disk
func (r *Reader) FileSize() int64 { return r.fileSize }

// LinesRead returns the number of lines consumed so far, skipped lines
// included
func (r *Reader) LinesRead() int64 { return r.linesRead }

// CharsRead returns the number of bytes of the last line, terminator included
func (r *Reader) CharsRead() int { return r.charsRead }

// Laziness returns the current laziness
func (r *Reader) Laziness() Laziness { return r.laziness }

// Next returns the record decoded from the next line. It returns io.EOF at
// the end of the file, and keeps returning it on further calls. Any other
// error is terminal.
func (r *Reader) Next() (*record.Record, error) {
	id, line, err := r.classify()
	if err != nil {
		return nil, err
	}
	rec, _ := r.layout.Get(id)
	rec.Decode(line)
	return rec, nil
}

// NextRecordID returns the record identifier of the next line without
// decoding it
func (r *Reader) NextRecordID() (string, error) {
	id, _, err := r.classify()
	return id, err
}

// classify reads lines until one maps to a known record
func (r *Reader) classify() (string, string, error) {
	if r.err != nil {
		return "", "", r.err
	}
	for {
		if err := r.readLine(); err != nil {
			r.err = err
			return "", "", err
		}
		line := format.TrimEOL(string(r.line))

		if r.ignore != nil && r.ignore.MatchString(line) {
			r.log.Debug("line ignored", "line", r.linesRead)
			continue
		}

		id := r.mapper(line)
		if r.layout.ContainsRecord(id) {
			return id, line, nil
		}
		if r.laziness == Stringent {
			r.err = fmt.Errorf("%w: couldn't find record ID %q at line %d of %s",
				format.ErrClassification, id, r.linesRead, r.path)
			r.log.Error("unknown record", "id", id, "line", r.linesRead, "path", r.path)
			return "", "", r.err
		}
		r.log.Debug("unknown record skipped", "id", id, "line", r.linesRead)
	}
}

// readLine reads one line, terminator included, into r.line
func (r *Reader) readLine() error {
	if r.br == nil {
		if err := r.open(); err != nil {
			return err
		}
	}

	r.line = r.line[:0]
	for {
		chunk, err := r.br.ReadSlice('\n')
		r.line = append(r.line, chunk...)
		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(r.line) == 0 {
				return io.EOF
			}
		default:
			return fmt.Errorf("read %s: %w", r.path, err)
		}
		r.linesRead++
		r.charsRead = len(r.line)
		return nil
	}
}

// open sets up the buffered (and possibly decompressed) input
func (r *Reader) open() error {
	var src io.Reader = r.file
	if c := CompressionFor(r.path); r.decompress && c != CompressionNone {
		zr, closer, err := decompressor(r.file, c)
		if err != nil {
			return fmt.Errorf("%s: %w", r.path, err)
		}
		src, r.codec = zr, closer
		r.log.Debug("decompressing input", "path", r.path, "codec", c.String())
	}
	r.br = bufio.NewReaderSize(src, r.bufSize)
	return nil
}

// Close releases the data file
func (r *Reader) Close() error {
	if r.codec != nil {
		r.codec.Close()
		r.codec = nil
	}
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if r.err == nil {
		r.err = fmt.Errorf("read %s: %w", r.path, os.ErrClosed)
	}
	return err
}
