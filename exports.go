// exports.go - Re-exports for main package API
package gorbf

import (
	"github.com/wilhasse/go-rbf/format"
	"github.com/wilhasse/go-rbf/mapper"
	"github.com/wilhasse/go-rbf/record"
	"github.com/wilhasse/go-rbf/schema"
)

// Re-export types
type (
	Mode   = format.Mode
	Layout = schema.Layout
	Record = record.Record
	Field  = record.Field
	Mapper = mapper.Func
)

// Re-export constants from format package
const (
	ModeASCII = format.ModeASCII
	ModeUTF8  = format.ModeUTF8
)

// Re-export errors from format package
var (
	ErrConfig         = format.ErrConfig
	ErrConstruction   = format.ErrConstruction
	ErrLookup         = format.ErrLookup
	ErrClassification = format.ErrClassification
	ErrValidation     = format.ErrValidation
)

// Re-export functions
var (
	LoadLayout    = schema.LoadFile
	CompileMapper = mapper.Compile
)

// Open loads a layout file and opens a reader on a data file. The mapper
// uses the "type:<n> map:<spec>" grammar; an empty spec maps every line to
// itself.
func Open(layoutPath, dataPath, mapperSpec string, mode Mode) (*Reader, error) {
	layout, err := schema.LoadFile(layoutPath, mode)
	if err != nil {
		return nil, err
	}
	var m mapper.Func = mapper.Identity
	if mapperSpec != "" {
		if m, err = mapper.Compile(mapperSpec); err != nil {
			return nil, err
		}
	}
	return NewReader(dataPath, layout, m)
}
