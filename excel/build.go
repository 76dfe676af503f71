package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Formula is written as a cell formula instead of a value.
type Formula string

// SheetData is the content of one sheet for Build. Rows are written from
// A1; nil values leave the cell out. A nil row is not stored at all, while a
// non-nil row without values is stored as an empty row.
type SheetData struct {
	Name string
	Rows [][]any
}

// Build writes sheets, in order, into a new workbook.
func Build(sheets ...SheetData) (*bytes.Buffer, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "kastelo.dev/xlsx2json",
		DocSecurity: 0,
	})

	first := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	for i, sd := range sheets {
		if i == 0 {
			if err := xlsx.SetSheetName(first, sd.Name); err != nil {
				return nil, err
			}
		} else if _, err := xlsx.NewSheet(sd.Name); err != nil {
			return nil, err
		}
		if err := writeRows(xlsx, sd); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sd.Name, err)
		}
	}
	xlsx.SetActiveSheet(0)

	return xlsx.WriteToBuffer()
}

// emptyRowHeight is set on rows without values so that they are kept.
const emptyRowHeight = 15

func writeRows(xlsx *excelize.File, sd SheetData) error {
	for r, row := range sd.Rows {
		if row != nil && !hasValues(row) {
			if err := xlsx.SetRowHeight(sd.Name, r+1, emptyRowHeight); err != nil {
				return fmt.Errorf("row %d: %w", r+1, err)
			}
			continue
		}
		for c, v := range row {
			if v == nil {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			switch v := v.(type) {
			case Formula:
				err = xlsx.SetCellFormula(sd.Name, axis, string(v))
			case bool:
				err = xlsx.SetCellBool(sd.Name, axis, v)
			default:
				err = xlsx.SetCellValue(sd.Name, axis, v)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", axis, err)
			}
		}
	}
	return nil
}

func hasValues(row []any) bool {
	for _, v := range row {
		if v != nil {
			return true
		}
	}
	return false
}
