package similarity

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Load reads an N×N float matrix from a headerless CSV file and validates
// it against the expected catalog size.
func Load(path string, catalogSize int) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("similarity: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // dimension validated by New, not the CSV reader
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("similarity: parse %s: %w", path, err)
	}

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("similarity: %s row %d col %d: %w", path, i, j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return New(rows, catalogSize)
}
