package xlsx2json

// ProjectRow maps the cells of a data row onto the header keys. Cells in
// columns without a key and cells without text are left out, so a row may
// produce an empty record.
func ProjectRow(row Row, h *Header) *Record {
	rec := NewRecord()
	for _, c := range row.Cells {
		key, ok := h.Key(c.Col)
		if !ok {
			continue
		}
		if text, ok := CellText(c); ok {
			rec.Set(key, text)
		}
	}
	return rec
}
