package xlsx2json

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Parser converts workbooks into sheet records.
type Parser struct {
	log    *slog.Logger
	open   Opener
	encode func(v any) (string, error)
}

// NewParser returns a Parser that opens files with open and reports
// problems to log. A nil log means slog.Default().
func NewParser(log *slog.Logger, open Opener) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{
		log:    log,
		open:   open,
		encode: jsonText,
	}
}

// Stats counts what happened to the sheets of a workbook.
type Stats struct {
	Sheets  int
	Emitted int
	Failed  int
}

func (s *Stats) Add(other Stats) {
	s.Sheets += other.Sheets
	s.Emitted += other.Emitted
	s.Failed += other.Failed
}

// ParseSheet splits a sheet into its header and one record per data row.
// Row 0 is the header; every other row yields a record, empty or not.
func ParseSheet(sheet *Sheet) (*Header, []*Record) {
	h := newHeader()
	rows := make([]*Record, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row.Index > 0 {
			rows = append(rows, ProjectRow(row, h))
		} else {
			h = AnalyzeHeader(row)
		}
	}
	return h, rows
}

// ParseFile opens the workbook at path and hands a record for each of its
// sheets to sink. Only a failure to open the workbook is returned; sheet
// level problems are logged and counted.
func (p *Parser) ParseFile(ctx context.Context, path string, sink Sink) (Stats, error) {
	wb, err := p.open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open workbook: %w", err)
	}

	name := filepath.Base(path)
	st := p.ParseWorkbook(ctx, name, wb, sink)
	p.log.Info("parsed file", "file", name, "sheets", st.Sheets, "emitted", st.Emitted, "failed", st.Failed)
	return st, nil
}

// ParseWorkbook converts every sheet of wb in order, emitting each record
// as soon as it is built. A sheet that cannot be read, encoded or saved is
// logged and skipped. The workbook is closed before returning.
func (p *Parser) ParseWorkbook(ctx context.Context, fileName string, wb Workbook, sink Sink) Stats {
	defer func() {
		if err := wb.Close(); err != nil {
			p.log.Error("can't close workbook", "file", fileName, "error", err)
		}
	}()

	var st Stats
	for _, name := range wb.SheetNames() {
		st.Sheets++
		log := p.log.With("file", fileName, "sheet", name)

		sheet, err := wb.ReadSheet(name)
		if err != nil {
			log.Error("can't read sheet", "error", err)
			st.Failed++
			continue
		}

		h, rows := ParseSheet(sheet)
		rec, err := p.BuildRecord(fileName, name, h, rows)
		if err != nil {
			log.Error("can't build sheet record", "error", err)
			st.Failed++
			continue
		}

		if err := sink.Emit(ctx, rec); err != nil {
			log.Error("can't save sheet", "error", err)
			st.Failed++
			continue
		}
		st.Emitted++
	}
	return st
}
