// Package workbook reads named sheets from xlsx workbooks into simple
// header-addressed tables.
package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lipid-data/lipid.report/internal/fsutil"
)

// MissingFileError reports a workbook path that does not reference an
// existing file. The check happens before any read is attempted.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("workbook file does not exist: %s", e.Path)
}

// Workbook is an opened xlsx workbook.
type Workbook struct {
	path string
	file *excelize.File
}

// Open reads the workbook at path. It fails with a MissingFileError if
// the path does not reference an existing file.
func Open(fsys fsutil.FileSystem, path string) (*Workbook, error) {
	if !fsys.Exists(path) {
		return nil, &MissingFileError{Path: path}
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook %s: %w", path, err)
	}

	return &Workbook{path: path, file: f}, nil
}

// Close releases the underlying workbook resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Path returns the path the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// Sheet is one worksheet projected to a header row plus data rows.
// Rows are padded so every row has one cell per header column.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Sheet reads the named worksheet. The first row is the header.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q from %s: %w", name, w.path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q in %s has no header row", name, w.path)
	}

	header := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// excelize trims trailing empty cells; restore the row width.
		padded := make([]string, len(header))
		copy(padded, row)
		data = append(data, padded)
	}

	return &Sheet{Name: name, Columns: header, Rows: data}, nil
}

// Col returns the index of the named column, or -1 if absent.
func (s *Sheet) Col(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MustCol returns the index of the named column or an error naming the
// sheet, for columns the extractors cannot work without.
func (s *Sheet) MustCol(name string) (int, error) {
	i := s.Col(name)
	if i < 0 {
		return 0, fmt.Errorf("sheet %q has no column %q", s.Name, name)
	}
	return i, nil
}
