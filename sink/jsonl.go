// jsonl.go - JSON lines sink
package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/wilhasse/go-rbf/record"
)

// JSONField is one field of a JSON line. Typed is set for numeric, date and
// time fields whose value converts.
type JSONField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Typed any    `json:"typed,omitempty"`
}

// JSONRecord is the JSON form of a decoded record
type JSONRecord struct {
	Run    string      `json:"run,omitempty"`
	Record string      `json:"record"`
	Fields []JSONField `json:"fields"`
}

// NewJSONRecord copies the current values of rec
func NewJSONRecord(rec *record.Record, runID string) JSONRecord {
	jr := JSONRecord{Run: runID, Record: rec.Name, Fields: make([]JSONField, 0, rec.Count())}
	for _, f := range rec.Fields() {
		jf := JSONField{Name: f.Name, Value: f.Value()}
		if v := TypedValue(f); v != jf.Value {
			jf.Typed = v
		}
		jr.Fields = append(jr.Fields, jf)
	}
	return jr
}

// JSONLines writes one JSON object per record
type JSONLines struct {
	dst   io.Writer
	w     *bufio.Writer
	enc   *json.Encoder
	runID string
}

// NewJSONLines creates a sink writing to w. Close flushes and closes w
// unless it is stdout or stderr.
func NewJSONLines(w io.Writer, runID string) *JSONLines {
	bw := bufio.NewWriter(w)
	return &JSONLines{dst: w, w: bw, enc: json.NewEncoder(bw), runID: runID}
}

// Write encodes rec as one line
func (j *JSONLines) Write(ctx context.Context, rec *record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := j.enc.Encode(NewJSONRecord(rec, j.runID)); err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Name, err)
	}
	return nil
}

// Close flushes pending lines
func (j *JSONLines) Close(ctx context.Context) error {
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("flush json lines: %w", err)
	}
	return closeIf(j.dst)
}

// Abort drops the buffered lines and closes the destination. Lines already
// flushed stay.
func (j *JSONLines) Abort(ctx context.Context) error {
	j.w.Reset(io.Discard)
	return closeIf(j.dst)
}
