package main

import (
	"os"

	"kastelo.dev/xlsx2json/excel"
)

// writeSample writes a workbook that exercises the conversion rules: header
// transliteration, a dropped unnamed column, numbers, formulas, booleans, an
// empty row and a missing one.
func writeSample(path string) error {
	buf, err := excel.Build(
		excel.SheetData{
			Name: "Товары",
			Rows: [][]any{
				{"Имя Товара", "Цена", nil, "Итого", "В наличии"},
				{"Стол", 100, "x", excel.Formula("B2*2"), true},
				{},
				{"Стул", 12.5, nil, excel.Formula("B4*2"), false},
				nil,
				{"Шкаф", 1.23456789012345e-05},
			},
		},
		excel.SheetData{
			Name: "Пусто",
		},
	)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
