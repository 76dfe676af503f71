package xlsx2json

import (
	"fmt"

	"github.com/mailru/easyjson/jwriter"
)

// BuildRecord serializes the key map and the data rows of a sheet.
func (p *Parser) BuildRecord(fileName, sheetName string, h *Header, rows []*Record) (*SheetRecord, error) {
	if rows == nil {
		rows = []*Record{}
	}
	keys, err := p.encode(h.Keys)
	if err != nil {
		return nil, fmt.Errorf("encode column names: %w", err)
	}
	data, err := p.encode(rows)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return &SheetRecord{
		FileName:       fileName,
		SheetName:      sheetName,
		ColumnNamesMap: keys,
		FileJSON:       data,
	}, nil
}

// jsonText encodes a Record or a list of them. Keys keep their order and
// characters such as < and & are written as they are.
func jsonText(v any) (string, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	switch v := v.(type) {
	case *Record:
		writeObject(&w, v)
	case []*Record:
		w.RawByte('[')
		for i, rec := range v {
			if i > 0 {
				w.RawByte(',')
			}
			writeObject(&w, rec)
		}
		w.RawByte(']')
	default:
		return "", fmt.Errorf("can't encode %T", v)
	}
	bs, err := w.BuildBytes()
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

func writeObject(w *jwriter.Writer, rec *Record) {
	w.RawByte('{')
	if rec != nil {
		for p := rec.Oldest(); p != nil; p = p.Next() {
			if p != rec.Oldest() {
				w.RawByte(',')
			}
			w.String(p.Key)
			w.RawByte(':')
			w.String(p.Value)
		}
	}
	w.RawByte('}')
}
