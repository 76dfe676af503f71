// Package excel reads and writes xlsx workbooks for xlsx2json using
// excelize.
package excel

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"kastelo.dev/xlsx2json"
)

var ErrNoSuchSheet = errors.New("no such sheet")

var rawValues = excelize.Options{RawCellValue: true}

// Workbook is an xlsx file opened with excelize. The package is also kept
// as a zip archive to find out which rows the sheets actually store.
type Workbook struct {
	f     *excelize.File
	zr    *zip.Reader
	parts map[string]string
}

var _ xlsx2json.Workbook = (*Workbook)(nil)

func OpenFile(path string) (*Workbook, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return openBytes(bs)
}

func OpenReader(r io.Reader) (*Workbook, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return openBytes(bs)
}

func openBytes(bs []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(bs), int64(len(bs)))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Workbook{f: f, zr: zr}, nil
}

// Open is an xlsx2json.Opener for files on disk.
func Open(path string) (xlsx2json.Workbook, error) {
	wb, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

func (wb *Workbook) SheetNames() []string {
	return wb.f.GetSheetList()
}

func (wb *Workbook) Close() error {
	return wb.f.Close()
}

// ReadSheet reads the rows stored in the named sheet. Rows missing from the
// file are skipped; a stored row without values is returned without cells.
// Row indexes are the zero based row numbers in the sheet.
func (wb *Workbook) ReadSheet(name string) (*xlsx2json.Sheet, error) {
	if idx, err := wb.f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchSheet, name)
	}
	stored, err := wb.presentRows(name)
	if err != nil {
		return nil, err
	}

	rows, err := wb.f.Rows(name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sheet := &xlsx2json.Sheet{Name: name}
	for idx := 0; rows.Next(); idx++ {
		if !stored[idx+1] {
			continue
		}
		values, err := rows.Columns(rawValues)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", idx+1, err)
		}
		row := xlsx2json.Row{Index: idx}
		for col, v := range values {
			c, err := wb.cell(name, col, idx, v)
			if err != nil {
				return nil, err
			}
			row.Cells = append(row.Cells, c)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	return sheet, nil
}

func (wb *Workbook) presentRows(sheet string) (map[int]bool, error) {
	if wb.parts == nil {
		parts, err := sheetParts(wb.zr)
		if err != nil {
			return nil, err
		}
		wb.parts = parts
	}
	part, ok := wb.parts[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: no worksheet part for %q", ErrNoSuchSheet, sheet)
	}
	rows, err := storedRows(wb.zr, part)
	if err != nil {
		return nil, fmt.Errorf("scan rows of %q: %w", sheet, err)
	}
	return rows, nil
}

// cell classifies the raw value v found at zero based col and row. A
// formula is reported even when the workbook holds no cached result for it.
func (wb *Workbook) cell(sheet string, col, row int, v string) (xlsx2json.Cell, error) {
	c := xlsx2json.Cell{Col: col, Value: v}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return c, err
	}

	formula, err := wb.f.GetCellFormula(sheet, axis)
	if err != nil {
		return c, fmt.Errorf("%s: %w", axis, err)
	}
	if formula != "" {
		c.Kind = xlsx2json.CellFormula
		c.Value = formula
		return c, nil
	}
	if v == "" {
		c.Kind = xlsx2json.CellBlank
		return c, nil
	}

	typ, err := wb.f.GetCellType(sheet, axis)
	if err != nil {
		return c, fmt.Errorf("%s: %w", axis, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		c.Kind = xlsx2json.CellString
		c.Value = boolText(v)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Kind = xlsx2json.CellNumeric
		} else {
			c.Kind = xlsx2json.CellString
		}
	default:
		c.Kind = xlsx2json.CellString
	}
	return c, nil
}

func boolText(v string) string {
	switch v {
	case "1", "true", "TRUE":
		return "TRUE"
	case "0", "false", "FALSE":
		return "FALSE"
	default:
		return v
	}
}
