package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"kastelo.dev/xlsx2json"
	"kastelo.dev/xlsx2json/excel"
)

// runConvert writes one JSON line per sheet record to w.
func runConvert(ctx context.Context, log *slog.Logger, w io.Writer, files []string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	sink := xlsx2json.SinkFunc(func(_ context.Context, rec *xlsx2json.SheetRecord) error {
		return enc.Encode(rec)
	})

	p := xlsx2json.NewParser(log, excel.Open)
	failed := 0
	for _, file := range files {
		if _, err := p.ParseFile(ctx, file, sink); err != nil {
			log.Error("can't parse file", "file", filepath.Base(file), "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be opened", failed, len(files))
	}
	return nil
}

// collect parses a single workbook and returns its records.
func collect(ctx context.Context, log *slog.Logger, file string) ([]*xlsx2json.SheetRecord, error) {
	var recs []*xlsx2json.SheetRecord
	sink := xlsx2json.SinkFunc(func(_ context.Context, rec *xlsx2json.SheetRecord) error {
		recs = append(recs, rec)
		return nil
	})
	if _, err := xlsx2json.NewParser(log, excel.Open).ParseFile(ctx, file, sink); err != nil {
		return nil, err
	}
	return recs, nil
}
