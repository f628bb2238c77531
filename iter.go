// iter.go - Range-over-func iteration of a reader
package gorbf

import (
	"errors"
	"io"
	"iter"

	"github.com/wilhasse/go-rbf/record"
)

// All iterates over the remaining records. Iteration ends at the end of the
// file; any other error is yielded once, with a nil record, before stopping.
// The yielded record is reused by the next iteration.
//
//	for rec, err := range reader.All() {
//		if err != nil {
//			return err
//		}
//		fmt.Println(rec)
//	}
func (r *Reader) All() iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Count reads the remaining lines and returns the number of records of each
// kind
func (r *Reader) Count() (map[string]int, error) {
	counts := make(map[string]int)
	for {
		id, err := r.NextRecordID()
		if errors.Is(err, io.EOF) {
			return counts, nil
		}
		if err != nil {
			return counts, err
		}
		counts[id]++
	}
}
