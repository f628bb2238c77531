// job.go - One decode run over a data file
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	gorbf "github.com/wilhasse/go-rbf"
	"github.com/wilhasse/go-rbf/mapper"
	"github.com/wilhasse/go-rbf/schema"
	"github.com/wilhasse/go-rbf/sink"
)

// Stats summarizes one run
type Stats struct {
	JobID     string
	Lines     int64
	Records   int
	PerRecord map[string]int
	Elapsed   time.Duration
}

// decode reads one data file and writes its records to out and to the
// configured sink
func decode(ctx context.Context, cfg Config, dataPath string, out io.Writer, logger *slog.Logger) (*Stats, error) {
	start := time.Now()
	jobID := uuid.NewString()
	logger = logger.With("job_id", jobID, "data", dataPath)

	layout, err := schema.LoadFile(cfg.Layout, cfg.Mode(), schema.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if cfg.Skip != "" {
		layout.SetSkipField(cfg.Skip)
	}
	if err := layout.Validate(); err != nil {
		logger.Warn("layout lengths disagree", "err", err)
	}

	m, err := mapper.Compile(cfg.Mapper)
	if err != nil {
		return nil, err
	}
	reader, err := gorbf.NewReader(dataPath, layout, m)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	reader.SetLogger(logger)
	if cfg.Stringent {
		reader.SetLaziness(gorbf.Stringent)
	}

	var dst sink.Sink
	if cfg.Sink != "" {
		if dst, err = sink.Open(ctx, cfg.Sink, cfg.DSN, layout, jobID); err != nil {
			return nil, err
		}
	}

	stats := &Stats{JobID: jobID, PerRecord: make(map[string]int)}
	if cfg.Format == FormatCount && dst == nil {
		err = countRecords(ctx, cfg, reader, stats)
	} else {
		err = readRecords(ctx, cfg, reader, dst, out, stats)
	}
	if dst != nil {
		// the sink outlives a cancelled run long enough to commit or roll back
		sctx := context.WithoutCancel(ctx)
		if err != nil {
			if aerr := dst.Abort(sctx); aerr != nil {
				logger.Warn("sink abort failed", "err", aerr)
			}
		} else {
			err = dst.Close(sctx)
		}
	}
	stats.Lines = reader.LinesRead()
	stats.Elapsed = time.Since(start)
	if err != nil {
		return stats, err
	}

	if cfg.Format == FormatSummary || cfg.Format == FormatCount {
		printSummary(out, reader, stats)
	}
	logger.Info("decode done", "records", stats.Records, "lines", stats.Lines, "elapsed", stats.Elapsed)
	return stats, nil
}

func readRecords(ctx context.Context, cfg Config, reader *gorbf.Reader, dst sink.Sink, out io.Writer, stats *Stats) error {
	enc := json.NewEncoder(out)
	for rec, err := range reader.All() {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Records++
		stats.PerRecord[rec.Name]++

		switch cfg.Format {
		case FormatText:
			fmt.Fprintf(out, "%s%s\n", rec.Name, rec)
		case FormatJSON:
			if err := enc.Encode(sink.NewJSONRecord(rec, "")); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
		if dst != nil {
			if err := dst.Write(ctx, rec); err != nil {
				return err
			}
		}
		if cfg.MaxRecords > 0 && stats.Records >= cfg.MaxRecords {
			return nil
		}
	}
	return nil
}

// countRecords classifies lines without decoding them
func countRecords(ctx context.Context, cfg Config, reader *gorbf.Reader, stats *Stats) error {
	for {
		id, err := reader.NextRecordID()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Records++
		stats.PerRecord[id]++
		if cfg.MaxRecords > 0 && stats.Records >= cfg.MaxRecords {
			return nil
		}
	}
}

func printSummary(out io.Writer, reader *gorbf.Reader, stats *Stats) {
	fmt.Fprintf(out, "File:     %s (%d bytes)\n", reader.Path(), reader.FileSize())
	fmt.Fprintf(out, "Lines:    %d\n", stats.Lines)
	fmt.Fprintf(out, "Records:  %d\n", stats.Records)
	fmt.Fprintf(out, "Elapsed:  %s\n\n", stats.Elapsed.Round(time.Millisecond))

	names := make([]string, 0, len(stats.PerRecord))
	for name := range stats.PerRecord {
		names = append(names, name)
	}
	slices.Sort(names)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Record\tCount\tFields\tLength\n")
	for _, name := range names {
		fields, length := describe(reader.Layout(), name)
		fmt.Fprintf(w, "  %s\t%d\t%d\t%d\n", name, stats.PerRecord[name], fields, length)
	}
	w.Flush()
}

func describe(layout *schema.Layout, name string) (int, int) {
	rec, ok := layout.Get(name)
	if !ok {
		return 0, 0
	}
	return rec.Count(), rec.CalculatedLength
}
