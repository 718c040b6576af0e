package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads a catalog from path, dispatching on the file extension.
// Supported formats: .csv and .xlsx.
func Load(path string, aliases ColumnAliases) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, aliases)
	case ".xlsx":
		return LoadXLSX(path, aliases)
	default:
		return nil, fmt.Errorf("catalog: unsupported file format %q", filepath.Ext(path))
	}
}

// LoadCSV reads a catalog from a CSV file with a header row.
func LoadCSV(path string, aliases ColumnAliases) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may be ragged; short rows degrade per-field
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog: %s is empty", path)
	}
	return New(records[0], records[1:], aliases)
}

// LoadXLSX reads a catalog from the first sheet of an XLSX workbook.
func LoadXLSX(path string, aliases ColumnAliases) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("catalog: read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog: %s is empty", path)
	}
	return New(rows[0], rows[1:], aliases)
}
