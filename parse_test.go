package xlsx2json

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func text(col int, v string) Cell { return Cell{Col: col, Kind: CellString, Value: v} }
func num(col int, v string) Cell  { return Cell{Col: col, Kind: CellNumeric, Value: v} }
func blank(col int) Cell          { return Cell{Col: col, Kind: CellBlank} }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func columnKeys(h *Header) map[int]string {
	res := make(map[int]string)
	for p := h.Columns.Oldest(); p != nil; p = p.Next() {
		res[p.Key] = p.Value
	}
	return res
}

func recordPairs(rec *Record) [][2]string {
	res := [][2]string{}
	for p := rec.Oldest(); p != nil; p = p.Next() {
		res = append(res, [2]string{p.Key, p.Value})
	}
	return res
}

func TestAnalyzeHeader(t *testing.T) {
	h := AnalyzeHeader(Row{Index: 0, Cells: []Cell{
		text(0, "Имя"),
		blank(1),
		text(2, "Цена"),
		text(4, ""),
		num(5, "2024"),
	}})

	expCols := map[int]string{0: "imya", 2: "tsena", 5: "2024"}
	if cols := columnKeys(h); !reflect.DeepEqual(cols, expCols) {
		t.Errorf("columns %v, expected %v", cols, expCols)
	}

	var keys [][2]string
	for p := h.Keys.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, [2]string{p.Key, p.Value})
	}
	expKeys := [][2]string{{"imya", "Имя"}, {"tsena", "Цена"}, {"2024", "2024"}}
	if !reflect.DeepEqual(keys, expKeys) {
		t.Errorf("keys %v, expected %v", keys, expKeys)
	}
}

func TestAnalyzeHeaderEmpty(t *testing.T) {
	h := AnalyzeHeader(Row{Cells: []Cell{blank(0), text(1, "")}})
	if h.Columns.Len() != 0 || h.Keys.Len() != 0 {
		t.Fatalf("expected empty header, got %d columns, %d keys", h.Columns.Len(), h.Keys.Len())
	}

	rec := ProjectRow(Row{Index: 1, Cells: []Cell{text(0, "a"), text(1, "b")}}, h)
	if rec.Len() != 0 {
		t.Errorf("expected empty record, got %v", recordPairs(rec))
	}
}

func TestHeaderKeyCollision(t *testing.T) {
	// "Имя" and " имя " transliterate to the same key.
	h := AnalyzeHeader(Row{Cells: []Cell{
		text(0, "Имя"),
		text(1, "Цена"),
		text(2, " имя "),
	}})

	if h.Keys.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", h.Keys.Len())
	}
	if first := h.Keys.Oldest(); first.Key != "imya" || first.Value != " имя " {
		t.Errorf("first key %q -> %q, expected imya -> %q", first.Key, first.Value, " имя ")
	}
	expCols := map[int]string{0: "imya", 1: "tsena", 2: "imya"}
	if cols := columnKeys(h); !reflect.DeepEqual(cols, expCols) {
		t.Errorf("columns %v, expected %v", cols, expCols)
	}

	// The later column wins and the key keeps its first position.
	rec := ProjectRow(Row{Index: 1, Cells: []Cell{text(0, "first"), num(1, "5"), text(2, "second")}}, h)
	exp := [][2]string{{"imya", "second"}, {"tsena", "5"}}
	if res := recordPairs(rec); !reflect.DeepEqual(res, exp) {
		t.Errorf("record %v, expected %v", res, exp)
	}

	// A blank later column does not clear the value.
	rec = ProjectRow(Row{Index: 2, Cells: []Cell{text(0, "only"), blank(2)}}, h)
	exp = [][2]string{{"imya", "only"}}
	if res := recordPairs(rec); !reflect.DeepEqual(res, exp) {
		t.Errorf("record %v, expected %v", res, exp)
	}
}

func TestProjectRow(t *testing.T) {
	h := AnalyzeHeader(Row{Cells: []Cell{text(0, "Имя"), blank(1), text(2, "Цена")}})

	cases := []struct {
		in  Row
		out [][2]string
	}{
		{
			Row{Index: 1, Cells: []Cell{text(0, "Стол"), text(1, "x"), num(2, "100")}},
			[][2]string{{"imya", "Стол"}, {"tsena", "100"}},
		}, {
			Row{Index: 2, Cells: []Cell{num(2, "100.0"), text(0, "Стул")}},
			[][2]string{{"tsena", "100"}, {"imya", "Стул"}},
		}, {
			Row{Index: 3, Cells: []Cell{blank(0), blank(1), blank(2)}},
			[][2]string{},
		}, {
			Row{Index: 4, Cells: []Cell{text(7, "outside"), {Col: 2, Kind: CellFormula, Value: "A2*2"}}},
			[][2]string{{"tsena", "A2*2"}},
		}, {
			Row{Index: 5},
			[][2]string{},
		},
	}

	for _, tc := range cases {
		if res := recordPairs(ProjectRow(tc.in, h)); !reflect.DeepEqual(res, tc.out) {
			t.Errorf("ProjectRow(%+v) -> %v, expected %v", tc.in, res, tc.out)
		}
	}
}

func TestParseSheet(t *testing.T) {
	sheet := &Sheet{
		Name: "Лист1",
		Rows: []Row{
			{Index: 0, Cells: []Cell{text(0, "Имя"), blank(1), text(2, "Цена")}},
			{Index: 1, Cells: []Cell{text(0, "Стол"), text(1, "x"), num(2, "100")}},
			{Index: 2, Cells: []Cell{blank(0), blank(1), blank(2)}},
			{Index: 3, Cells: []Cell{text(0, "Стул")}},
		},
	}

	h, rows := ParseSheet(sheet)
	if h.Keys.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", h.Keys.Len())
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Len() != 0 {
		t.Errorf("expected blank row to give an empty record, got %v", recordPairs(rows[1]))
	}

	rec, err := NewParser(discardLogger(), nil).BuildRecord("file.xlsx", sheet.Name, h, rows)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ColumnNamesMap != `{"imya":"Имя","tsena":"Цена"}` {
		t.Errorf("unexpected column names map %s", rec.ColumnNamesMap)
	}
	if rec.FileJSON != `[{"imya":"Стол","tsena":"100"},{},{"imya":"Стул"}]` {
		t.Errorf("unexpected file json %s", rec.FileJSON)
	}

	var decoded []map[string]string
	if err := json.Unmarshal([]byte(rec.FileJSON), &decoded); err != nil {
		t.Fatal(err)
	}
	exp := []map[string]string{{"imya": "Стол", "tsena": "100"}, {}, {"imya": "Стул"}}
	if !reflect.DeepEqual(decoded, exp) {
		t.Errorf("decoded %v, expected %v", decoded, exp)
	}
}

func TestBuildRecordKeepsMarkup(t *testing.T) {
	h, rows := ParseSheet(&Sheet{Rows: []Row{
		{Index: 0, Cells: []Cell{text(0, "A<B & C>"), text(1, `Кавычки "x"`)}},
		{Index: 1, Cells: []Cell{text(0, "<b>1 & 2</b>"), text(1, "a\\b\nc")}},
	}})
	rec, err := NewParser(discardLogger(), nil).BuildRecord("f", "s", h, rows)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		res  string
		exp  string
	}{
		{"column names", rec.ColumnNamesMap, `{"a<b_&_c>":"A<B & C>","kavchki_\"x\"":"Кавычки \"x\""}`},
		{"rows", rec.FileJSON, `[{"a<b_&_c>":"<b>1 & 2</b>","kavchki_\"x\"":"a\\b\nc"}]`},
	}
	for _, tc := range cases {
		if tc.res != tc.exp {
			t.Errorf("%s -> %s, expected %s", tc.name, tc.res, tc.exp)
		}
		if !json.Valid([]byte(tc.res)) {
			t.Errorf("%s is not valid JSON: %s", tc.name, tc.res)
		}
	}
}

func TestParseSheetHeaderOnly(t *testing.T) {
	h, rows := ParseSheet(&Sheet{Rows: []Row{{Index: 0, Cells: []Cell{text(0, "A")}}}})
	rec, err := NewParser(discardLogger(), nil).BuildRecord("f", "s", h, rows)
	if err != nil {
		t.Fatal(err)
	}
	if rec.FileJSON != "[]" || rec.ColumnNamesMap != `{"a":"A"}` {
		t.Errorf("unexpected record %+v", rec)
	}

	rec, err = NewParser(discardLogger(), nil).BuildRecord("f", "s", newHeader(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if rec.FileJSON != "[]" || rec.ColumnNamesMap != "{}" {
		t.Errorf("unexpected record %+v", rec)
	}
}

type fakeWorkbook struct {
	sheets   []*Sheet
	readErr  map[string]error
	closeErr error
	closed   int
}

func (wb *fakeWorkbook) SheetNames() []string {
	var names []string
	for _, s := range wb.sheets {
		names = append(names, s.Name)
	}
	return names
}

func (wb *fakeWorkbook) ReadSheet(name string) (*Sheet, error) {
	if err := wb.readErr[name]; err != nil {
		return nil, err
	}
	for _, s := range wb.sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, errors.New("missing")
}

func (wb *fakeWorkbook) Close() error {
	wb.closed++
	return wb.closeErr
}

func simpleSheet(name string) *Sheet {
	return &Sheet{Name: name, Rows: []Row{
		{Index: 0, Cells: []Cell{text(0, "Код")}},
		{Index: 1, Cells: []Cell{num(0, "1")}},
	}}
}

type collector struct {
	recs []*SheetRecord
}

func (c *collector) Emit(_ context.Context, rec *SheetRecord) error {
	c.recs = append(c.recs, rec)
	return nil
}

func TestParseWorkbookEncodeFailure(t *testing.T) {
	wb := &fakeWorkbook{sheets: []*Sheet{simpleSheet("one"), simpleSheet("two")}}

	p := NewParser(discardLogger(), nil)
	calls := 0
	p.encode = func(v any) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return jsonText(v)
	}

	var c collector
	st := p.ParseWorkbook(context.Background(), "book.xlsx", wb, &c)

	if len(c.recs) != 1 || c.recs[0].SheetName != "two" {
		t.Fatalf("expected only sheet two, got %+v", c.recs)
	}
	if st != (Stats{Sheets: 2, Emitted: 1, Failed: 1}) {
		t.Errorf("unexpected stats %+v", st)
	}
	if wb.closed != 1 {
		t.Errorf("workbook closed %d times", wb.closed)
	}
	if exp := (SheetRecord{FileName: "book.xlsx", SheetName: "two", ColumnNamesMap: `{"kod":"Код"}`, FileJSON: `[{"kod":"1"}]`}); *c.recs[0] != exp {
		t.Errorf("record %+v, expected %+v", *c.recs[0], exp)
	}
}

func TestParseWorkbookFailures(t *testing.T) {
	wb := &fakeWorkbook{
		sheets:   []*Sheet{simpleSheet("bad"), simpleSheet("rejected"), simpleSheet("good")},
		readErr:  map[string]error{"bad": errors.New("corrupt")},
		closeErr: errors.New("close failed"),
	}

	var names []string
	sink := SinkFunc(func(_ context.Context, rec *SheetRecord) error {
		names = append(names, rec.SheetName)
		if rec.SheetName == "rejected" {
			return errors.New("database down")
		}
		return nil
	})

	st := NewParser(discardLogger(), nil).ParseWorkbook(context.Background(), "book.xlsx", wb, sink)
	if !reflect.DeepEqual(names, []string{"rejected", "good"}) {
		t.Errorf("emitted %v", names)
	}
	if st != (Stats{Sheets: 3, Emitted: 1, Failed: 2}) {
		t.Errorf("unexpected stats %+v", st)
	}
	if wb.closed != 1 {
		t.Errorf("workbook closed %d times", wb.closed)
	}
}

func TestParseWorkbookClosesOnPanic(t *testing.T) {
	wb := &fakeWorkbook{sheets: []*Sheet{simpleSheet("one")}}
	sink := SinkFunc(func(context.Context, *SheetRecord) error {
		panic("sink exploded")
	})

	func() {
		defer func() { _ = recover() }()
		NewParser(discardLogger(), nil).ParseWorkbook(context.Background(), "book.xlsx", wb, sink)
	}()

	if wb.closed != 1 {
		t.Errorf("workbook closed %d times", wb.closed)
	}
}

func TestParseFile(t *testing.T) {
	wb := &fakeWorkbook{sheets: []*Sheet{simpleSheet("one")}}
	var opened string
	open := func(path string) (Workbook, error) {
		opened = path
		if path == "missing.xlsx" {
			return nil, errors.New("no such file")
		}
		return wb, nil
	}
	p := NewParser(discardLogger(), open)

	var c collector
	st, err := p.ParseFile(context.Background(), "/data/in/report.xlsx", &c)
	if err != nil {
		t.Fatal(err)
	}
	if opened != "/data/in/report.xlsx" {
		t.Errorf("opened %q", opened)
	}
	if st.Emitted != 1 || len(c.recs) != 1 || c.recs[0].FileName != "report.xlsx" {
		t.Errorf("unexpected result %+v, %+v", st, c.recs)
	}

	if _, err := p.ParseFile(context.Background(), "missing.xlsx", &c); err == nil {
		t.Error("expected open failure")
	}
	if len(c.recs) != 1 {
		t.Errorf("unexpected records after failed open: %d", len(c.recs))
	}
}
