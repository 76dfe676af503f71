package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sourcegraph/go-diff-patch"

	"kastelo.dev/xlsx2json"
)

// goldenRecord is a sheet record with its JSON documents inlined, so that
// golden files diff line by line.
type goldenRecord struct {
	FileName       string          `json:"file_name"`
	SheetName      string          `json:"sheet_name"`
	ColumnNamesMap json.RawMessage `json:"column_names_map"`
	FileJSON       json.RawMessage `json:"file_json"`
}

func renderGolden(recs []*xlsx2json.SheetRecord) (string, error) {
	out := make([]goldenRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, goldenRecord{
			FileName:       rec.FileName,
			SheetName:      rec.SheetName,
			ColumnNamesMap: json.RawMessage(rec.ColumnNamesMap),
			FileJSON:       json.RawMessage(rec.FileJSON),
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// runDiff converts file and compares the result with the golden file,
// printing a unified diff to w. It reports whether they differ. With update
// set the golden file is rewritten instead.
func runDiff(ctx context.Context, log *slog.Logger, w io.Writer, file, golden string, update bool) (bool, error) {
	recs, err := collect(ctx, log, file)
	if err != nil {
		return false, err
	}
	after, err := renderGolden(recs)
	if err != nil {
		return false, err
	}

	if update {
		if err := os.WriteFile(golden, []byte(after), 0o644); err != nil {
			return false, err
		}
		log.Info("updated golden file", "file", golden, "sheets", len(recs))
		return false, nil
	}

	before, err := os.ReadFile(golden)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if string(before) == after {
		return false, nil
	}

	printPatch(w, diffpatch.GeneratePatch(filepath.Base(golden), string(before), after))
	return true, nil
}

var (
	patchHeader = color.New(color.Bold)
	patchHunk   = color.New(color.FgCyan)
	patchAdd    = color.New(color.FgGreen)
	patchDel    = color.New(color.FgRed)
)

func printPatch(w io.Writer, patch string) {
	for _, line := range strings.SplitAfter(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			patchHeader.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			patchHunk.Fprint(w, line)
		case strings.HasPrefix(line, "+"):
			patchAdd.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			patchDel.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
}
