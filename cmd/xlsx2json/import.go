package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"kastelo.dev/xlsx2json"
	"kastelo.dev/xlsx2json/config"
	"kastelo.dev/xlsx2json/excel"
)

var errNoDatabase = errors.New("no database configured, use --database-url or XLSX2JSON_DATABASE_URL")

func runImport(ctx context.Context, log *slog.Logger, cfg config.Config, dir string, migrate bool) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if migrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	_, err = importDir(ctx, log.With("run", st.RunID()), dir, cfg.Extension, st)
	return err
}

// importDir hands the records of every workbook in dir to sink. A file that
// can't be opened is logged and skipped.
func importDir(ctx context.Context, log *slog.Logger, dir, ext string, sink xlsx2json.Sink) (xlsx2json.Stats, error) {
	var total xlsx2json.Stats

	files, err := xlsx2json.ListWorkbooks(dir, ext)
	if err != nil {
		return total, err
	}

	log.Info("start parsing directory", "dir", dir, "files", len(files))
	p := xlsx2json.NewParser(log, excel.Open)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		st, err := p.ParseFile(ctx, file, sink)
		if err != nil {
			log.Error("can't parse file", "file", filepath.Base(file), "error", err)
			continue
		}
		total.Add(st)
	}
	log.Info("finish parsing", "dir", dir, "sheets", total.Sheets, "emitted", total.Emitted, "failed", total.Failed)
	return total, nil
}
