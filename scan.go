package xlsx2json

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtension is the suffix of the files ListWorkbooks picks up.
const DefaultExtension = ".xlsx"

// ListWorkbooks returns the workbooks directly inside dir, sorted by name.
// Hidden files and the "~"-prefixed lock files spreadsheet programs leave
// behind are skipped, as is anything not ending in ext.
func ListWorkbooks(dir, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var res []string
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)
		mode := e.Type()
		if mode&os.ModeSymlink != 0 {
			fi, err := os.Stat(path)
			if err != nil {
				continue
			}
			mode = fi.Mode()
		}
		if !mode.IsRegular() {
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
			continue
		}
		if !strings.HasSuffix(name, ext) {
			continue
		}
		res = append(res, path)
	}
	return res, nil
}
