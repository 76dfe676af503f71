package xlsx2json

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"kastelo.dev/xlsx2json/translit"
)

// Header describes the columns of a sheet as found in its first row.
type Header struct {
	// Columns maps a column index to its key.
	Columns *orderedmap.OrderedMap[int, string]
	// Keys maps a key to the header text it was derived from.
	Keys *orderedmap.OrderedMap[string, string]
}

func newHeader() *Header {
	return &Header{
		Columns: orderedmap.New[int, string](),
		Keys:    orderedmap.New[string, string](),
	}
}

// AnalyzeHeader derives the column keys from a header row. Cells without
// text get no key. When two headers give the same key, the later header
// text replaces the earlier one in Keys and both columns share the key.
func AnalyzeHeader(row Row) *Header {
	h := newHeader()
	for _, c := range row.Cells {
		text, ok := CellText(c)
		if !ok {
			continue
		}
		key := translit.Transliterate(text)
		h.Keys.Set(key, text)
		h.Columns.Set(c.Col, key)
	}
	return h
}

// Key returns the key for column col.
func (h *Header) Key(col int) (string, bool) {
	return h.Columns.Get(col)
}
