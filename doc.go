// Package gorbf reads record-based files: text files made of fixed-width
// records, where the first characters of each line tell which record layout
// applies.
//
// The library is organized into packages:
//
//   - format: addressing mode (ASCII bytes or UTF-8 characters), error sentinels, padding
//   - column: field types and typed value parsing (string, integer, decimal, date, time)
//   - record: fields and record templates, with the ascii and utf8 decoders
//   - schema: layout catalog loaded from XML, YAML or CREATE TABLE statements
//   - mapper: line classifiers ("type:1 map:0..2")
//   - sink: exporters of decoded records (JSON lines, SQL databases, MongoDB)
//
// This package holds the Reader, which ties a layout and a mapper to a data
// file (plain, .gz or .zst).
//
// Basic usage:
//
//	layout, _ := schema.LoadFile("layout.xml", format.ModeASCII)
//	m, _ := mapper.Compile("type:1 map:0..2")
//
//	reader, _ := gorbf.NewReader("data.txt", layout, m)
//	defer reader.Close()
//
//	for rec, err := range reader.All() {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    v, _ := rec.GetValue("ID")
//	}
package gorbf
