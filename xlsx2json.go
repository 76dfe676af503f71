// Package xlsx2json turns spreadsheet workbooks into one JSON record per
// worksheet. The first row of a sheet names the columns; every following row
// becomes an object keyed by the transliterated column names.
package xlsx2json // import "kastelo.dev/xlsx2json"

import (
	"context"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CellKind tells how the value of a Cell is to be read.
type CellKind int

const (
	CellBlank CellKind = iota
	CellNumeric
	CellFormula
	CellString
)

func (k CellKind) String() string {
	switch k {
	case CellBlank:
		return "blank"
	case CellNumeric:
		return "numeric"
	case CellFormula:
		return "formula"
	case CellString:
		return "string"
	default:
		return "unknown"
	}
}

// Cell is a single stored value. Value holds the number as stored for
// numeric cells, the expression for formula cells and the string otherwise.
type Cell struct {
	Col   int
	Kind  CellKind
	Value string
}

// Row is a stored row of a sheet. Index is the zero based row number.
type Row struct {
	Index int
	Cells []Cell
}

// Sheet holds the stored rows of a worksheet in order.
type Sheet struct {
	Name string
	Rows []Row
}

// Workbook is a readable set of sheets. The core only reads from it and
// closes it once when done.
type Workbook interface {
	SheetNames() []string
	ReadSheet(name string) (*Sheet, error)
	Close() error
}

// Opener opens the workbook stored at path.
type Opener func(path string) (Workbook, error)

// Record is one data row, keyed by column key in column visitation order.
type Record = orderedmap.OrderedMap[string, string]

func NewRecord() *Record {
	return orderedmap.New[string, string]()
}

// SheetRecord is the JSON rendering of one worksheet.
type SheetRecord struct {
	FileName       string `json:"file_name" db:"file_name"`
	SheetName      string `json:"sheet_name" db:"sheet_name"`
	ColumnNamesMap string `json:"column_names_map" db:"column_names_map"`
	FileJSON       string `json:"file_json" db:"file_json"`
}

// Sink receives every sheet record as soon as it is built.
type Sink interface {
	Emit(ctx context.Context, rec *SheetRecord) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, rec *SheetRecord) error

func (f SinkFunc) Emit(ctx context.Context, rec *SheetRecord) error {
	return f(ctx, rec)
}
