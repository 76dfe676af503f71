package excel

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

const defaultWorkbookPart = "xl/workbook.xml"

type xmlRelationships struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xmlWorkbookSheets struct {
	Sheets []struct {
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"sheets>sheet"`
}

func decodePart(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return xml.NewDecoder(f).Decode(v)
}

// relsPart returns the relationships part belonging to part.
func relsPart(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget resolves a relationship target relative to the part that
// owns the relationship.
func resolveTarget(owner, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(owner), target)
}

// sheetParts maps every sheet name to its part inside the package.
func sheetParts(zr *zip.Reader) (map[string]string, error) {
	wbPart := defaultWorkbookPart
	var root xmlRelationships
	if err := decodePart(zr, "_rels/.rels", &root); err == nil {
		for _, rel := range root.Rels {
			if strings.HasSuffix(rel.Type, "/officeDocument") {
				wbPart = resolveTarget("", rel.Target)
				break
			}
		}
	}

	var rels xmlRelationships
	if err := decodePart(zr, relsPart(wbPart), &rels); err != nil {
		return nil, fmt.Errorf("workbook relationships: %w", err)
	}
	targets := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		targets[rel.ID] = resolveTarget(wbPart, rel.Target)
	}

	var wb xmlWorkbookSheets
	if err := decodePart(zr, wbPart, &wb); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	parts := make(map[string]string, len(wb.Sheets))
	for _, sh := range wb.Sheets {
		var name, id string
		for _, a := range sh.Attrs {
			switch a.Name.Local {
			case "name":
				name = a.Value
			case "id":
				id = a.Value
			}
		}
		if target, ok := targets[id]; ok {
			parts[name] = target
		}
	}
	return parts, nil
}

// storedRows returns the one based numbers of the rows present in a
// worksheet part. Rows without an r attribute follow the previous row.
func storedRows(zr *zip.Reader, part string) (map[int]bool, error) {
	f, err := zr.Open(part)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	rows := make(map[int]bool)
	num := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "row" {
				continue
			}
			num++
			for _, a := range el.Attr {
				if a.Name.Local != "r" {
					continue
				}
				if r, err := strconv.Atoi(a.Value); err == nil && r > 0 {
					num = r
				}
			}
			rows[num] = true
			if err := dec.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if el.Name.Local == "sheetData" {
				return rows, nil
			}
		}
	}
}
