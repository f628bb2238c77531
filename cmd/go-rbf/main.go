package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/wilhasse/go-rbf/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args and executes the job. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("go-rbf", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		fc         Config
		configFile = fs.String("config", "", "YAML file with default settings")
	)
	fs.StringVar(&fc.Layout, "layout", "", "Layout file (.xml, .yaml, .sql)")
	fs.StringVar(&fc.Data, "data", "", "Data file to read (.gz and .zst are decompressed)")
	fs.StringVar(&fc.Mapper, "mapper", "", `Record mapper (default "type:1 map:0..2")`)
	fs.BoolVar(&fc.UTF8, "utf8", false, "Count field widths in UTF-8 characters instead of bytes")
	fs.BoolVar(&fc.Stringent, "stringent", false, "Fail on unknown record identifiers instead of skipping them")
	fs.StringVar(&fc.Format, "format", "", "Output format: text, json, summary or count (default text)")
	fs.IntVar(&fc.MaxRecords, "max-records", 0, "Stop after this many records (0 = all)")
	fs.BoolVar(&fc.Validate, "validate", false, "Check record lengths of the layout and exit")
	fs.StringVar(&fc.Skip, "skip", "", "Comma-separated field names to drop")
	fs.StringVar(&fc.Sink, "sink", "", "Export records: jsonl, sqlite, postgres, mysql or mongo")
	fs.StringVar(&fc.DSN, "dsn", "", "Sink destination: file path or connection string")
	fs.StringVar(&fc.Watch, "watch", "", "Decode every data file created or written in this directory")
	fs.StringVar(&fc.Schedule, "schedule", "", "Decode the data file on this cron schedule")
	fs.BoolVar(&fc.Verbose, "v", false, "Verbose output")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Record-based file reader\n\n")
		fmt.Fprintf(stderr, "Usage: go-rbf [OPTIONS] layout_file data_file\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  go-rbf layout.xml data.txt\n")
		fmt.Fprintf(stderr, "  go-rbf -format summary -utf8 layout.xml data.txt.gz\n")
		fmt.Fprintf(stderr, "  go-rbf -sink sqlite -dsn out.db layout.xml data.txt\n")
		fmt.Fprintf(stderr, "  go-rbf -validate layout.xml\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if rest := fs.Args(); len(rest) > 0 {
		fc.Layout = rest[0]
		if len(rest) > 1 {
			fc.Data = rest[1]
		}
	}

	cfg := Defaults()
	if *configFile != "" {
		fileCfg, err := LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg = fileCfg
	}
	cfg = cfg.Merge(fc)

	if err := cfg.Check(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fs.Usage()
		return 1
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())

	var err error
	switch {
	case cfg.Validate:
		err = validate(cfg, stdout, logger)
	case cfg.Watch != "":
		err = watch(ctx, cfg, stdout, logger)
	case cfg.Schedule != "":
		err = schedule(ctx, cfg, stdout, logger)
	default:
		_, err = decode(ctx, cfg, cfg.Data, stdout, logger)
	}
	if err != nil {
		logger.Error("run failed", "err", err)
		return 1
	}
	return 0
}

// validate loads the layout and prints the record lengths check
func validate(cfg Config, out io.Writer, logger *slog.Logger) error {
	layout, err := schema.LoadFile(cfg.Layout, cfg.Mode(), schema.WithLogger(logger))
	if err != nil {
		return err
	}
	fmt.Fprint(out, layout)
	if err := layout.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: all record lengths match\n", cfg.Layout)
	return nil
}
